package schema

import (
	"database/sql"
	"fmt"
	"log"

	"grievance/config"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database, creates missing tables and verifies the
// columns the engine depends on. The caller owns the returned handle.
func Open(cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, "", fmt.Errorf("failed to build database DSN: %w", err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection: %w", err)
	}
	if dialect == SQLite {
		// single writer; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}
	log.Printf("[SCHEMA] Database connection established (%s)", dialect)

	if err := InitializeDatabase(db, dialect); err != nil {
		db.Close()
		return nil, "", err
	}
	if err := ValidateRequiredColumns(db, dialect, nil); err != nil {
		db.Close()
		return nil, "", err
	}
	return db, dialect, nil
}

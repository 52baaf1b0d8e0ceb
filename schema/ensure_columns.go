// Package schema: ensure complaint columns added after the first release exist (auto-migration at startup).

package schema

import (
	"database/sql"
	"fmt"
	"log"
)

type columnSpec struct {
	column string
	ddl    map[Dialect]string
}

// Feedback and reopen columns arrived after the first release; older databases lack them.
var lateComplaintColumns = []columnSpec{
	{"satisfied", map[Dialect]string{MySQL: "BOOLEAN NOT NULL DEFAULT FALSE", SQLite: "BOOLEAN NOT NULL DEFAULT 0"}},
	{"satisfied_at", map[Dialect]string{MySQL: "DATETIME(6) NULL", SQLite: "DATETIME NULL"}},
	{"reopened", map[Dialect]string{MySQL: "BOOLEAN NOT NULL DEFAULT FALSE", SQLite: "BOOLEAN NOT NULL DEFAULT 0"}},
	{"reopened_at", map[Dialect]string{MySQL: "DATETIME(6) NULL", SQLite: "DATETIME NULL"}},
	{"reopen_reason", map[Dialect]string{MySQL: "TEXT NULL", SQLite: "TEXT NULL"}},
	{"zone", map[Dialect]string{MySQL: "VARCHAR(100) NULL", SQLite: "TEXT NULL"}},
}

// EnsureComplaintColumns adds only missing columns to complaints. Does not drop or
// recreate the table; does not remove existing data.
func EnsureComplaintColumns(db *sql.DB, dialect Dialect) error {
	for _, spec := range lateComplaintColumns {
		if err := ensureColumn(db, dialect, tableComplaints, spec.column, spec.ddl[dialect]); err != nil {
			return err
		}
	}
	log.Println("[SCHEMA] Schema check passed")
	return nil
}

func tableExists(db *sql.DB, dialect Dialect, table string) (bool, error) {
	query := `SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`
	if dialect == SQLite {
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	var count int
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func columnExists(db *sql.DB, dialect Dialect, table, column string) (bool, error) {
	query := `SELECT COUNT(*) FROM information_schema.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	if dialect == SQLite {
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	}
	var count int
	if err := db.QueryRow(query, table, column).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func ensureColumn(db *sql.DB, dialect Dialect, table, column, spec string) error {
	exists, err := columnExists(db, dialect, table, column)
	if err != nil {
		return fmt.Errorf("failed to check column %s.%s: %w", table, column, err)
	}
	if exists {
		return nil
	}
	// Neither MySQL nor SQLite supports ADD COLUMN IF NOT EXISTS; we checked above so safe to add
	query := "ALTER TABLE " + table + " ADD COLUMN " + column + " " + spec
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	log.Printf("[SCHEMA] Added missing column: %s.%s", table, column)
	return nil
}

// Package schema: safe database initialization. Creates only missing tables, never drops or overwrites.

package schema

import (
	"database/sql"
	"fmt"
	"log"
)

const (
	tableUsers                = "users"
	tableComplaints           = "complaints"
	tableComplaintEscalations = "complaint_escalations"
)

// InitializeDatabase ensures core tables exist, creating only missing tables in order:
// users → complaints → complaint_escalations. Then adds any complaint columns introduced
// after the table was first created. Does not drop or recreate tables; does not remove data.
func InitializeDatabase(db *sql.DB, dialect Dialect) error {
	tables := []struct {
		name string
		ddl  map[Dialect]string
	}{
		{tableUsers, usersDDL},
		{tableComplaints, complaintsDDL},
		{tableComplaintEscalations, escalationsDDL},
	}
	for _, t := range tables {
		exists, err := tableExists(db, dialect, t.name)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", t.name, err)
		}
		if exists {
			log.Printf("[SCHEMA] %s table exists", t.name)
			continue
		}
		if _, err := db.Exec(t.ddl[dialect]); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
		log.Printf("[SCHEMA] created %s table", t.name)
	}
	if dialect == SQLite {
		for _, q := range sqliteIndexes {
			if _, err := db.Exec(q); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}
	}
	return EnsureComplaintColumns(db, dialect)
}

var usersDDL = map[Dialect]string{
	MySQL: `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    name VARCHAR(255) NOT NULL DEFAULT '' COMMENT 'Display name',
    email VARCHAR(255) UNIQUE NOT NULL COMMENT 'Login identity carried in the JWT',
    role VARCHAR(20) NOT NULL COMMENT 'CITIZEN, OFFICER or ADMIN',
    department VARCHAR(100) NULL COMMENT 'Officer department',
    approved BOOLEAN NOT NULL DEFAULT TRUE COMMENT 'Officer approval flag',
    created_at DATETIME(6) NOT NULL COMMENT 'Account creation time',
    INDEX idx_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	SQLite: `
CREATE TABLE IF NOT EXISTS users (
    user_id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL,
    department TEXT NULL,
    approved BOOLEAN NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL
)`,
}

var complaintsDDL = map[Dialect]string{
	MySQL: `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_number VARCHAR(50) UNIQUE NOT NULL COMMENT 'Public-facing complaint number',
    citizen_id BIGINT NOT NULL COMMENT 'Complainant',
    department VARCHAR(100) NOT NULL COMMENT 'Routed department',
    description TEXT NOT NULL COMMENT 'Detailed description',
    photo_ref VARCHAR(500) NULL COMMENT 'Photo storage reference',
    latitude DECIMAL(10, 8) NULL,
    longitude DECIMAL(11, 8) NULL,
    location_address VARCHAR(500) NULL COMMENT 'Free-text address used for duplicate detection',
    zone VARCHAR(100) NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    validation_status VARCHAR(30) NOT NULL DEFAULT 'PENDING_VALIDATION',
    priority VARCHAR(10) NOT NULL DEFAULT 'LOW',
    deadline DATETIME(6) NULL COMMENT 'SLA deadline',
    assigned_officer_id BIGINT NULL COMMENT 'Currently assigned officer or escalation admin',
    proof_ref VARCHAR(500) NULL,
    proof_uploaded_at DATETIME(6) NULL,
    escalated BOOLEAN NOT NULL DEFAULT FALSE,
    escalated_at DATETIME(6) NULL,
    escalation_reason TEXT NULL,
    rejection_reason TEXT NULL,
    validated_by BIGINT NULL,
    validated_at DATETIME(6) NULL,
    rating INT NULL COMMENT '1-5 citizen rating',
    feedback TEXT NULL,
    rated_at DATETIME(6) NULL,
    satisfied BOOLEAN NOT NULL DEFAULT FALSE,
    satisfied_at DATETIME(6) NULL,
    reopened BOOLEAN NOT NULL DEFAULT FALSE,
    reopened_at DATETIME(6) NULL,
    reopen_reason TEXT NULL,
    resolved_at DATETIME(6) NULL,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    FOREIGN KEY (citizen_id) REFERENCES users(user_id) ON DELETE RESTRICT,
    INDEX idx_citizen_id (citizen_id),
    INDEX idx_assigned_officer (assigned_officer_id),
    INDEX idx_department_address (department, location_address(191)),
    INDEX idx_overdue (escalated, status, deadline),
    INDEX idx_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	SQLite: `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id INTEGER PRIMARY KEY AUTOINCREMENT,
    complaint_number TEXT NOT NULL UNIQUE,
    citizen_id INTEGER NOT NULL REFERENCES users(user_id),
    department TEXT NOT NULL,
    description TEXT NOT NULL,
    photo_ref TEXT NULL,
    latitude REAL NULL,
    longitude REAL NULL,
    location_address TEXT NULL,
    zone TEXT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    validation_status TEXT NOT NULL DEFAULT 'PENDING_VALIDATION',
    priority TEXT NOT NULL DEFAULT 'LOW',
    deadline DATETIME NULL,
    assigned_officer_id INTEGER NULL,
    proof_ref TEXT NULL,
    proof_uploaded_at DATETIME NULL,
    escalated BOOLEAN NOT NULL DEFAULT 0,
    escalated_at DATETIME NULL,
    escalation_reason TEXT NULL,
    rejection_reason TEXT NULL,
    validated_by INTEGER NULL,
    validated_at DATETIME NULL,
    rating INTEGER NULL,
    feedback TEXT NULL,
    rated_at DATETIME NULL,
    satisfied BOOLEAN NOT NULL DEFAULT 0,
    satisfied_at DATETIME NULL,
    reopened BOOLEAN NOT NULL DEFAULT 0,
    reopened_at DATETIME NULL,
    reopen_reason TEXT NULL,
    resolved_at DATETIME NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`,
}

var escalationsDDL = map[Dialect]string{
	MySQL: `
CREATE TABLE IF NOT EXISTS complaint_escalations (
    escalation_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    original_officer_id BIGINT NULL COMMENT 'Assignee before escalation',
    escalated_to_id BIGINT NOT NULL COMMENT 'Administrator who received the complaint',
    escalation_reason TEXT NOT NULL,
    escalated_at DATETIME(6) NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT FALSE,
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id) ON DELETE RESTRICT,
    INDEX idx_complaint_escalated (complaint_id, escalated_at DESC),
    INDEX idx_resolved (resolved)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	SQLite: `
CREATE TABLE IF NOT EXISTS complaint_escalations (
    escalation_id INTEGER PRIMARY KEY AUTOINCREMENT,
    complaint_id INTEGER NOT NULL REFERENCES complaints(complaint_id),
    original_officer_id INTEGER NULL,
    escalated_to_id INTEGER NOT NULL,
    escalation_reason TEXT NOT NULL,
    escalated_at DATETIME NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT 0
)`,
}

var sqliteIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_complaints_citizen ON complaints (citizen_id)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_officer ON complaints (assigned_officer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_overdue ON complaints (escalated, status, deadline)`,
	`CREATE INDEX IF NOT EXISTS idx_escalations_complaint ON complaint_escalations (complaint_id, escalated_at)`,
}

// Package schema provides startup validation of required DB columns to prevent schema-code mismatch.
package schema

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// RequiredColumn defines a required column for a table.
type RequiredColumn struct {
	Table  string
	Column string
}

// DefaultRequiredColumns are the columns the overdue sweep and escalation log depend on.
// If any are missing, the server should not start.
var DefaultRequiredColumns = []RequiredColumn{
	{Table: tableComplaints, Column: "deadline"},
	{Table: tableComplaints, Column: "escalated"},
	{Table: tableComplaints, Column: "escalated_at"},
	{Table: tableComplaints, Column: "escalation_reason"},
	{Table: tableComplaints, Column: "assigned_officer_id"},
	{Table: tableComplaintEscalations, Column: "original_officer_id"},
	{Table: tableComplaintEscalations, Column: "escalated_to_id"},
	{Table: tableComplaintEscalations, Column: "resolved"},
}

// ValidateRequiredColumns checks that all required columns exist and lists any that are missing.
func ValidateRequiredColumns(db *sql.DB, dialect Dialect, required []RequiredColumn) error {
	if len(required) == 0 {
		required = DefaultRequiredColumns
	}
	var missing []string
	for _, rc := range required {
		exists, err := columnExists(db, dialect, rc.Table, rc.Column)
		if err != nil {
			return fmt.Errorf("failed to check column %s.%s: %w", rc.Table, rc.Column, err)
		}
		if !exists {
			missing = append(missing, rc.Table+"."+rc.Column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns (run migrations to fix): %s", strings.Join(missing, ", "))
	}
	log.Println("[SCHEMA] Required columns verified")
	return nil
}

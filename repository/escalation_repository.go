package repository

import (
	"context"
	"database/sql"
	"fmt"

	"grievance/models"
)

const escalationColumns = `escalation_id, complaint_id, original_officer_id, escalated_to_id, escalation_reason, escalated_at, resolved`

// EscalationRepository handles database operations for escalations
type EscalationRepository struct {
	db DBTX
}

// NewEscalationRepository creates a new escalation repository
func NewEscalationRepository(db DBTX) *EscalationRepository {
	return &EscalationRepository{db: db}
}

func scanEscalation(row rowScanner) (*models.ComplaintEscalation, error) {
	e := &models.ComplaintEscalation{}
	err := row.Scan(
		&e.EscalationID,
		&e.ComplaintID,
		&e.OriginalOfficerID,
		&e.EscalatedToID,
		&e.Reason,
		&e.EscalatedAt,
		&e.Resolved,
	)
	if err != nil {
		return nil, err
	}
	e.EscalatedAt = utc(e.EscalatedAt)
	return e, nil
}

func (r *EscalationRepository) queryEscalations(ctx context.Context, query string, args ...interface{}) ([]models.ComplaintEscalation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escalations []models.ComplaintEscalation
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		escalations = append(escalations, *e)
	}
	return escalations, rows.Err()
}

// CreateEscalation appends an escalation record
func (r *EscalationRepository) CreateEscalation(ctx context.Context, e *models.ComplaintEscalation) error {
	query := `
		INSERT INTO complaint_escalations (
			complaint_id, original_officer_id, escalated_to_id, escalation_reason, escalated_at, resolved
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		e.ComplaintID,
		e.OriginalOfficerID,
		e.EscalatedToID,
		e.Reason,
		utc(e.EscalatedAt),
		e.Resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to create escalation record: %w", err)
	}

	escalationID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get escalation ID: %w", err)
	}
	e.EscalationID = escalationID
	return nil
}

// GetEscalationByID retrieves one escalation record
func (r *EscalationRepository) GetEscalationByID(ctx context.Context, escalationID int64) (*models.ComplaintEscalation, error) {
	query := `SELECT ` + escalationColumns + ` FROM complaint_escalations WHERE escalation_id = ?`
	e, err := scanEscalation(r.db.QueryRowContext(ctx, query, escalationID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation: %w", err)
	}
	return e, nil
}

// ListByComplaint returns a complaint's escalation history, most recent first
func (r *EscalationRepository) ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintEscalation, error) {
	query := `SELECT ` + escalationColumns + `
		FROM complaint_escalations
		WHERE complaint_id = ?
		ORDER BY escalated_at DESC, escalation_id DESC`
	escalations, err := r.queryEscalations(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation history: %w", err)
	}
	return escalations, nil
}

// ListUnresolved returns every escalation not yet marked resolved, oldest first
func (r *EscalationRepository) ListUnresolved(ctx context.Context) ([]models.ComplaintEscalation, error) {
	query := `SELECT ` + escalationColumns + `
		FROM complaint_escalations
		WHERE resolved = ?
		ORDER BY escalated_at, escalation_id`
	escalations, err := r.queryEscalations(ctx, query, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresolved escalations: %w", err)
	}
	return escalations, nil
}

// MarkResolved flips the resolved flag on an escalation record
func (r *EscalationRepository) MarkResolved(ctx context.Context, escalationID int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE complaint_escalations SET resolved = ? WHERE escalation_id = ?`, true, escalationID)
	if err != nil {
		return fmt.Errorf("failed to resolve escalation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

package models

import (
	"database/sql"
	"time"
)

// ComplaintEscalation is an append-only escalation log entry
type ComplaintEscalation struct {
	EscalationID      int64         `db:"escalation_id"`
	ComplaintID       int64         `db:"complaint_id"`
	OriginalOfficerID sql.NullInt64 `db:"original_officer_id"`
	EscalatedToID     int64         `db:"escalated_to_id"`
	Reason            string        `db:"escalation_reason"`
	EscalatedAt       time.Time     `db:"escalated_at"`
	Resolved          bool          `db:"resolved"`
}

// EscalationResponse is the wire shape of an escalation record
type EscalationResponse struct {
	EscalationID      int64     `json:"escalation_id"`
	ComplaintID       int64     `json:"complaint_id"`
	OriginalOfficerID *int64    `json:"original_officer_id"`
	EscalatedToID     int64     `json:"escalated_to_id"`
	Reason            string    `json:"reason"`
	EscalatedAt       time.Time `json:"escalated_at"`
	Resolved          bool      `json:"resolved"`
}

// NewEscalationResponse converts a stored record to its response shape
func NewEscalationResponse(e *ComplaintEscalation) EscalationResponse {
	return EscalationResponse{
		EscalationID:      e.EscalationID,
		ComplaintID:       e.ComplaintID,
		OriginalOfficerID: int64Ptr(e.OriginalOfficerID),
		EscalatedToID:     e.EscalatedToID,
		Reason:            e.Reason,
		EscalatedAt:       e.EscalatedAt,
		Resolved:          e.Resolved,
	}
}

// SweepFailure records one complaint the sweep could not escalate
type SweepFailure struct {
	ComplaintID int64  `json:"complaint_id"`
	Error       string `json:"error"`
}

// SweepSummary is the outcome of one overdue sweep
type SweepSummary struct {
	RunID      string         `json:"run_id"`
	SweepTime  time.Time      `json:"sweep_time"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Candidates int            `json:"candidates"`
	Escalated  []int64        `json:"escalated"`
	Skipped    []int64        `json:"skipped"`
	Failed     []SweepFailure `json:"failed"`
}

package models

import (
	"database/sql"
	"strings"
	"time"
)

// ComplaintStatus represents the possible statuses of a complaint
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "PENDING"
	StatusInProgress ComplaintStatus = "IN_PROGRESS"
	StatusResolved   ComplaintStatus = "RESOLVED"
	StatusRejected   ComplaintStatus = "REJECTED"
)

// AllStatuses lists every status in display order.
var AllStatuses = []ComplaintStatus{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ParseComplaintStatus maps text to a known status. Matching is case-insensitive.
func ParseComplaintStatus(s string) (ComplaintStatus, bool) {
	switch ComplaintStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusResolved:
		return StatusResolved, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// IsTerminal reports whether no further lifecycle transitions are expected (except reopen).
func (s ComplaintStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusRejected:
		return true
	case StatusPending, StatusInProgress:
		return false
	}
	return false
}

// ValidationStatus is the administrative validation state of a complaint
type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "PENDING_VALIDATION"
	ValidationApproved ValidationStatus = "VALIDATED"
	ValidationRejected ValidationStatus = "REJECTED_BY_ADMIN"
)

// Priority represents complaint priority levels
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// AllPriorities lists every priority, highest first.
var AllPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority maps text to a known priority. ok is false for empty or unrecognized input.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToUpper(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// Role is the directory role of a user
type Role string

const (
	RoleCitizen Role = "CITIZEN"
	RoleOfficer Role = "OFFICER"
	RoleAdmin   Role = "ADMIN"
)

// ParseRole maps text to a known role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleCitizen:
		return RoleCitizen, true
	case RoleOfficer:
		return RoleOfficer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User is a directory entry. Identity and approval are owned by the auth layer; the
// engine only reads it.
type User struct {
	UserID     int64          `db:"user_id" json:"user_id"`
	Name       string         `db:"name" json:"name"`
	Email      string         `db:"email" json:"email"`
	Role       Role           `db:"role" json:"role"`
	Department sql.NullString `db:"department" json:"-"`
	Approved   bool           `db:"approved" json:"approved"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// Complaint represents a complaint entity
type Complaint struct {
	ComplaintID     int64           `db:"complaint_id"`
	ComplaintNumber string          `db:"complaint_number"`
	CitizenID       int64           `db:"citizen_id"`
	Department      string          `db:"department"`
	Description     string          `db:"description"`
	PhotoRef        sql.NullString  `db:"photo_ref"`
	Latitude        sql.NullFloat64 `db:"latitude"`
	Longitude       sql.NullFloat64 `db:"longitude"`
	LocationAddress sql.NullString  `db:"location_address"`
	Zone            sql.NullString  `db:"zone"`

	Status            ComplaintStatus  `db:"status"`
	ValidationStatus  ValidationStatus `db:"validation_status"`
	Priority          Priority         `db:"priority"`
	Deadline          sql.NullTime     `db:"deadline"`
	AssignedOfficerID sql.NullInt64    `db:"assigned_officer_id"`

	ProofRef        sql.NullString `db:"proof_ref"`
	ProofUploadedAt sql.NullTime   `db:"proof_uploaded_at"`

	Escalated        bool           `db:"escalated"`
	EscalatedAt      sql.NullTime   `db:"escalated_at"`
	EscalationReason sql.NullString `db:"escalation_reason"`

	RejectionReason sql.NullString `db:"rejection_reason"`
	ValidatedBy     sql.NullInt64  `db:"validated_by"`
	ValidatedAt     sql.NullTime   `db:"validated_at"`

	Rating      sql.NullInt32  `db:"rating"`
	Feedback    sql.NullString `db:"feedback"`
	RatedAt     sql.NullTime   `db:"rated_at"`
	Satisfied   bool           `db:"satisfied"`
	SatisfiedAt sql.NullTime   `db:"satisfied_at"`

	Reopened     bool           `db:"reopened"`
	ReopenedAt   sql.NullTime   `db:"reopened_at"`
	ReopenReason sql.NullString `db:"reopen_reason"`

	ResolvedAt sql.NullTime `db:"resolved_at"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

// IsOverdue reports whether the complaint matches the sweep selection predicate at now.
func (c *Complaint) IsOverdue(now time.Time) bool {
	return c.Deadline.Valid &&
		c.Deadline.Time.Before(now) &&
		!c.Status.IsTerminal() &&
		!c.Escalated
}

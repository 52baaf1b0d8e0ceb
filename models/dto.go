package models

import (
	"database/sql"
	"time"
)

// FileComplaintRequest is the citizen's filing payload
type FileComplaintRequest struct {
	Department      string   `json:"department"`
	Description     string   `json:"description"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	LocationAddress *string  `json:"location_address,omitempty"`
	Zone            *string  `json:"zone,omitempty"`
	PhotoRef        *string  `json:"photo_ref,omitempty"`
}

// AssignOfficerRequest assigns an officer. Deadline, when present, overrides the
// priority-derived deadline (RFC 3339 or 2006-01-02T15:04:05 in UTC).
type AssignOfficerRequest struct {
	OfficerID int64   `json:"officer_id"`
	Priority  *string `json:"priority,omitempty"`
	Deadline  *string `json:"deadline,omitempty"`
}

// UpdateStatusRequest is the generic status override
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UploadProofRequest carries the proof-of-resolution reference
type UploadProofRequest struct {
	ProofRef string `json:"proof_ref"`
}

// RejectComplaintRequest carries the admin's rejection reason
type RejectComplaintRequest struct {
	Reason string `json:"reason"`
}

// RateComplaintRequest carries a 1-5 rating and optional feedback
type RateComplaintRequest struct {
	Rating   *int    `json:"rating"`
	Feedback *string `json:"feedback,omitempty"`
}

// SatisfactionRequest records whether the citizen is satisfied
type SatisfactionRequest struct {
	Satisfied *bool `json:"satisfied"`
}

// ReopenComplaintRequest carries the citizen's reopen reason
type ReopenComplaintRequest struct {
	Reason string `json:"reason"`
}

// EscalateComplaintRequest is a manual escalation by an admin
type EscalateComplaintRequest struct {
	Reason string `json:"reason"`
}

// ComplaintResponse is the wire shape of a complaint
type ComplaintResponse struct {
	ComplaintID       int64            `json:"complaint_id"`
	ComplaintNumber   string           `json:"complaint_number"`
	CitizenID         int64            `json:"citizen_id"`
	Department        string           `json:"department"`
	Description       string           `json:"description"`
	PhotoRef          *string          `json:"photo_ref"`
	Latitude          *float64         `json:"latitude"`
	Longitude         *float64         `json:"longitude"`
	LocationAddress   *string          `json:"location_address"`
	Zone              *string          `json:"zone"`
	Status            ComplaintStatus  `json:"status"`
	ValidationStatus  ValidationStatus `json:"validation_status"`
	Priority          Priority         `json:"priority"`
	Deadline          *time.Time       `json:"deadline"`
	AssignedOfficerID *int64           `json:"assigned_officer_id"`
	ProofRef          *string          `json:"proof_ref"`
	ProofUploadedAt   *time.Time       `json:"proof_uploaded_at"`
	Escalated         bool             `json:"escalated"`
	EscalatedAt       *time.Time       `json:"escalated_at"`
	EscalationReason  *string          `json:"escalation_reason"`
	RejectionReason   *string          `json:"rejection_reason"`
	ValidatedBy       *int64           `json:"validated_by"`
	ValidatedAt       *time.Time       `json:"validated_at"`
	Rating            *int32           `json:"rating"`
	Feedback          *string          `json:"feedback"`
	RatedAt           *time.Time       `json:"rated_at"`
	Satisfied         bool             `json:"satisfied"`
	SatisfiedAt       *time.Time       `json:"satisfied_at"`
	Reopened          bool             `json:"reopened"`
	ReopenedAt        *time.Time       `json:"reopened_at"`
	ReopenReason      *string          `json:"reopen_reason"`
	ResolvedAt        *time.Time       `json:"resolved_at"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewComplaintResponse flattens nullable columns into optional JSON fields
func NewComplaintResponse(c *Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ComplaintID:       c.ComplaintID,
		ComplaintNumber:   c.ComplaintNumber,
		CitizenID:         c.CitizenID,
		Department:        c.Department,
		Description:       c.Description,
		PhotoRef:          stringPtr(c.PhotoRef),
		LocationAddress:   stringPtr(c.LocationAddress),
		Zone:              stringPtr(c.Zone),
		Status:            c.Status,
		ValidationStatus:  c.ValidationStatus,
		Priority:          c.Priority,
		Deadline:          timePtr(c.Deadline),
		AssignedOfficerID: int64Ptr(c.AssignedOfficerID),
		ProofRef:          stringPtr(c.ProofRef),
		ProofUploadedAt:   timePtr(c.ProofUploadedAt),
		Escalated:         c.Escalated,
		EscalatedAt:       timePtr(c.EscalatedAt),
		EscalationReason:  stringPtr(c.EscalationReason),
		RejectionReason:   stringPtr(c.RejectionReason),
		ValidatedBy:       int64Ptr(c.ValidatedBy),
		ValidatedAt:       timePtr(c.ValidatedAt),
		Feedback:          stringPtr(c.Feedback),
		RatedAt:           timePtr(c.RatedAt),
		Satisfied:         c.Satisfied,
		SatisfiedAt:       timePtr(c.SatisfiedAt),
		Reopened:          c.Reopened,
		ReopenedAt:        timePtr(c.ReopenedAt),
		ReopenReason:      stringPtr(c.ReopenReason),
		ResolvedAt:        timePtr(c.ResolvedAt),
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if c.Latitude.Valid {
		v := c.Latitude.Float64
		resp.Latitude = &v
	}
	if c.Longitude.Valid {
		v := c.Longitude.Float64
		resp.Longitude = &v
	}
	if c.Rating.Valid {
		v := c.Rating.Int32
		resp.Rating = &v
	}
	return resp
}

// NewComplaintResponses converts a slice, never returning nil
func NewComplaintResponses(list []Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(list))
	for i := range list {
		out = append(out, NewComplaintResponse(&list[i]))
	}
	return out
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

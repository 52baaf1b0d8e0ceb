package service

import (
	"database/sql"
	"strings"
	"time"

	"grievance/models"
)

// Lifecycle transitions are pure: they take a complaint value and return the next one or a
// DomainError. Loading, ownership lookup and persistence happen in ComplaintService.

// NewComplaint builds a freshly filed complaint for citizenID.
func NewComplaint(req models.FileComplaintRequest, citizenID int64, now time.Time) (models.Complaint, error) {
	const op = "file complaint"
	department := strings.TrimSpace(req.Department)
	description := strings.TrimSpace(req.Description)
	if department == "" {
		return models.Complaint{}, validationError(op, "department is required")
	}
	if description == "" {
		return models.Complaint{}, validationError(op, "description is required")
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return models.Complaint{}, validationError(op, "latitude and longitude must be provided together")
	}

	c := models.Complaint{
		CitizenID:        citizenID,
		Department:       department,
		Description:      description,
		PhotoRef:         optionalString(req.PhotoRef),
		LocationAddress:  optionalString(req.LocationAddress),
		Zone:             optionalString(req.Zone),
		Status:           models.StatusPending,
		ValidationStatus: models.ValidationPending,
		Priority:         models.PriorityLow,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.Latitude != nil {
		c.Latitude = sql.NullFloat64{Float64: *req.Latitude, Valid: true}
		c.Longitude = sql.NullFloat64{Float64: *req.Longitude, Valid: true}
	}
	return c, nil
}

// AssignOfficer sets the assignee, optional priority and the deadline. Status is left as is.
// A nil priority keeps the current one. A non-nil deadline is
// used verbatim; otherwise it is derived from the effective priority.
func AssignOfficer(c models.Complaint, officerID int64, priority *models.Priority, deadline *time.Time, now time.Time) (models.Complaint, error) {
	if priority != nil {
		c.Priority = *priority
	}
	if deadline != nil {
		c.Deadline = sql.NullTime{Time: deadline.UTC(), Valid: true}
	} else {
		c.Deadline = sql.NullTime{Time: ComputeDeadline(c.Priority, now), Valid: true}
	}
	c.AssignedOfficerID = sql.NullInt64{Int64: officerID, Valid: true}
	c.UpdatedAt = now
	return c, nil
}

// Validate records administrative approval.
func Validate(c models.Complaint, adminID int64, now time.Time) (models.Complaint, error) {
	if c.Status == models.StatusRejected {
		return c, invalidState("validate complaint", "complaint %d has been rejected", c.ComplaintID)
	}
	c.ValidationStatus = models.ValidationApproved
	c.ValidatedBy = sql.NullInt64{Int64: adminID, Valid: true}
	c.ValidatedAt = sql.NullTime{Time: now, Valid: true}
	c.RejectionReason = sql.NullString{}
	c.UpdatedAt = now
	return c, nil
}

// Reject records administrative rejection with a reason.
func Reject(c models.Complaint, adminID int64, reason string, now time.Time) (models.Complaint, error) {
	const op = "reject complaint"
	if c.Status == models.StatusRejected {
		return c, invalidState(op, "complaint %d is already rejected", c.ComplaintID)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return c, validationError(op, "rejection reason is required")
	}
	c.ValidationStatus = models.ValidationRejected
	c.RejectionReason = sql.NullString{String: reason, Valid: true}
	c.ValidatedBy = sql.NullInt64{Int64: adminID, Valid: true}
	c.ValidatedAt = sql.NullTime{Time: now, Valid: true}
	c = withStatus(c, models.StatusRejected, now)
	c.UpdatedAt = now
	return c, nil
}

// SetStatus is the administrative status override. Any jump between known statuses is
// allowed except into REJECTED, which must go through Reject so a reason is recorded.
func SetStatus(c models.Complaint, status models.ComplaintStatus, now time.Time) (models.Complaint, error) {
	const op = "update status"
	if status == models.StatusRejected {
		return c, invalidState(op, "use reject to move a complaint to %s", models.StatusRejected)
	}
	if _, ok := models.ParseComplaintStatus(string(status)); !ok {
		return c, validationError(op, "unknown status %q", status)
	}
	c = withStatus(c, status, now)
	c.UpdatedAt = now
	return c, nil
}

// UploadProof attaches proof of work. Only the assigned officer may upload; resolving is a
// separate status change.
func UploadProof(c models.Complaint, officerID int64, proofRef string, now time.Time) (models.Complaint, error) {
	const op = "upload proof"
	if !c.AssignedOfficerID.Valid || c.AssignedOfficerID.Int64 != officerID {
		return c, forbidden(op, "complaint %d is not assigned to officer %d", c.ComplaintID, officerID)
	}
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return c, validationError(op, "proof reference is required")
	}
	c.ProofRef = sql.NullString{String: proofRef, Valid: true}
	c.ProofUploadedAt = sql.NullTime{Time: now, Valid: true}
	c.UpdatedAt = now
	return c, nil
}

// Rate records the citizen's 1-5 rating on a resolved complaint.
func Rate(c models.Complaint, citizenID int64, rating *int, feedback *string, now time.Time) (models.Complaint, error) {
	const op = "rate complaint"
	if c.CitizenID != citizenID {
		return c, forbidden(op, "complaint %d does not belong to the caller", c.ComplaintID)
	}
	if c.Status != models.StatusResolved {
		return c, invalidState(op, "only resolved complaints can be rated")
	}
	if rating == nil || *rating < 1 || *rating > 5 {
		return c, validationError(op, "rating must be between 1 and 5")
	}
	c.Rating = sql.NullInt32{Int32: int32(*rating), Valid: true}
	c.Feedback = optionalString(feedback)
	c.RatedAt = sql.NullTime{Time: now, Valid: true}
	c.UpdatedAt = now
	return c, nil
}

// MarkSatisfied records the citizen's satisfaction verdict on a rated complaint.
func MarkSatisfied(c models.Complaint, citizenID int64, satisfied bool, now time.Time) (models.Complaint, error) {
	const op = "mark satisfied"
	if c.CitizenID != citizenID {
		return c, forbidden(op, "complaint %d does not belong to the caller", c.ComplaintID)
	}
	if c.Status != models.StatusResolved {
		return c, invalidState(op, "only resolved complaints can be marked satisfied")
	}
	if !c.Rating.Valid {
		return c, invalidState(op, "complaint must be rated first")
	}
	c.Satisfied = satisfied
	if satisfied {
		c.SatisfiedAt = sql.NullTime{Time: now, Valid: true}
	} else {
		c.SatisfiedAt = sql.NullTime{}
	}
	c.UpdatedAt = now
	return c, nil
}

// Reopen sends a resolved complaint back to IN_PROGRESS and clears the citizen's verdict.
func Reopen(c models.Complaint, citizenID int64, reason string, now time.Time) (models.Complaint, error) {
	const op = "reopen complaint"
	if c.CitizenID != citizenID {
		return c, forbidden(op, "complaint %d does not belong to the caller", c.ComplaintID)
	}
	if c.Status != models.StatusResolved {
		return c, invalidState(op, "only resolved complaints can be reopened")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return c, validationError(op, "reopen reason is required")
	}
	c = withStatus(c, models.StatusInProgress, now)
	c.Reopened = true
	c.ReopenedAt = sql.NullTime{Time: now, Valid: true}
	c.ReopenReason = sql.NullString{String: reason, Valid: true}
	c.Rating = sql.NullInt32{}
	c.Feedback = sql.NullString{}
	c.RatedAt = sql.NullTime{}
	c.Satisfied = false
	c.SatisfiedAt = sql.NullTime{}
	c.UpdatedAt = now
	return c, nil
}

// ApplyEscalation reassigns c to adminID and returns the escalation record to append.
// The caller has already checked that c is not escalated.
func ApplyEscalation(c models.Complaint, adminID int64, reason string, now time.Time) (models.Complaint, models.ComplaintEscalation) {
	record := models.ComplaintEscalation{
		ComplaintID:       c.ComplaintID,
		OriginalOfficerID: c.AssignedOfficerID,
		EscalatedToID:     adminID,
		Reason:            reason,
		EscalatedAt:       now,
		Resolved:          false,
	}
	c.Escalated = true
	c.EscalatedAt = sql.NullTime{Time: now, Valid: true}
	c.EscalationReason = sql.NullString{String: reason, Valid: true}
	c.AssignedOfficerID = sql.NullInt64{Int64: adminID, Valid: true}
	c.UpdatedAt = now
	return c, record
}

// withStatus moves c to status, keeping resolved_at in step: set on entry to RESOLVED,
// cleared on exit.
func withStatus(c models.Complaint, status models.ComplaintStatus, now time.Time) models.Complaint {
	if status == models.StatusResolved && c.Status != models.StatusResolved {
		c.ResolvedAt = sql.NullTime{Time: now, Valid: true}
	}
	if status != models.StatusResolved {
		c.ResolvedAt = sql.NullTime{}
	}
	c.Status = status
	return c
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

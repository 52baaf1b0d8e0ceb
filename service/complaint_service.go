package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"grievance/metrics"
	"grievance/models"
	"grievance/repository"
	"grievance/utils"
)

// ComplaintService runs lifecycle transitions: load, apply the pure transition, persist,
// all inside one transaction.
type ComplaintService struct {
	store   repository.Store
	clock   utils.Clock
	metrics *metrics.Recorder // optional
}

// NewComplaintService creates a new complaint service
func NewComplaintService(store repository.Store, clock utils.Clock, recorder *metrics.Recorder) *ComplaintService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &ComplaintService{store: store, clock: clock, metrics: recorder}
}

// FileComplaint creates a PENDING complaint owned by the caller
func (s *ComplaintService) FileComplaint(ctx context.Context, citizenEmail string, req models.FileComplaintRequest) (*models.Complaint, error) {
	const op = "file complaint"
	var filed models.Complaint
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		citizen, err := lookupUserByEmail(ctx, tx, op, citizenEmail)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		c, err := NewComplaint(req, citizen.UserID, now)
		if err != nil {
			return err
		}
		c.ComplaintNumber = repository.GenerateComplaintNumber(now)
		if err := tx.Complaints().CreateComplaint(ctx, &c); err != nil {
			return err
		}
		filed = c
		return nil
	})
	if err != nil {
		s.metrics.Transition(op, outcome(err))
		return nil, err
	}
	s.metrics.ComplaintFiled()
	s.metrics.Transition(op, "ok")
	log.Printf("[COMPLAINT] filed complaint_id=%d number=%s department=%s", filed.ComplaintID, filed.ComplaintNumber, filed.Department)
	return &filed, nil
}

// GetComplaint loads one complaint
func (s *ComplaintService) GetComplaint(ctx context.Context, complaintID int64) (*models.Complaint, error) {
	return loadComplaint(ctx, s.store, "get complaint", complaintID)
}

// ViewComplaint loads one complaint on behalf of a caller. Citizens may only
// read complaints they filed.
func (s *ComplaintService) ViewComplaint(ctx context.Context, complaintID int64, viewer Viewer) (*models.Complaint, error) {
	const op = "get complaint"
	c, err := loadComplaint(ctx, s.store, op, complaintID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(ctx, s.store, op, c, viewer); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComplaintByNumber loads a complaint by its public reference number
func (s *ComplaintService) GetComplaintByNumber(ctx context.Context, number string) (*models.Complaint, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, validationError("get complaint by number", "complaint number is required")
	}
	c, err := s.store.Complaints().GetComplaintByNumber(ctx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("get complaint by number", "complaint %s not found", number)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListMyComplaints returns the caller's complaints, newest first
func (s *ComplaintService) ListMyComplaints(ctx context.Context, citizenEmail string) ([]models.Complaint, error) {
	citizen, err := lookupUserByEmail(ctx, s.store, "list complaints", citizenEmail)
	if err != nil {
		return nil, err
	}
	return s.store.Complaints().ListByCitizen(ctx, citizen.UserID)
}

// ListAllComplaints returns every complaint, newest first
func (s *ComplaintService) ListAllComplaints(ctx context.Context) ([]models.Complaint, error) {
	return s.store.Complaints().ListComplaints(ctx)
}

// ListOfficerComplaints returns complaints assigned to the calling officer, newest first
func (s *ComplaintService) ListOfficerComplaints(ctx context.Context, officerEmail string) ([]models.Complaint, error) {
	officer, err := lookupUserByEmail(ctx, s.store, "list officer complaints", officerEmail)
	if err != nil {
		return nil, err
	}
	return s.store.Complaints().ListByOfficer(ctx, officer.UserID)
}

// AssignOfficer attaches an officer, optional priority and deadline. priority text that is
// not a known level is coerced to LOW; an empty string keeps the current priority.
func (s *ComplaintService) AssignOfficer(ctx context.Context, complaintID, officerID int64, priority string, deadline *time.Time) (*models.Complaint, error) {
	const op = "assign officer"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		officer, err := lookupUserByID(ctx, tx, op, officerID)
		if err != nil {
			return c, err
		}
		switch officer.Role {
		case models.RoleOfficer:
			if !officer.Approved {
				return c, validationError(op, "officer %d is not approved", officerID)
			}
		case models.RoleAdmin:
		case models.RoleCitizen:
			return c, validationError(op, "user %d is not an officer", officerID)
		default:
			return c, validationError(op, "user %d has unknown role %q", officerID, officer.Role)
		}
		var p *models.Priority
		if strings.TrimSpace(priority) != "" {
			v := PriorityOrLow(priority)
			p = &v
		}
		return AssignOfficer(c, officer.UserID, p, deadline, now)
	})
}

// ValidateComplaint records an admin's approval
func (s *ComplaintService) ValidateComplaint(ctx context.Context, complaintID int64, adminEmail string) (*models.Complaint, error) {
	const op = "validate complaint"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		admin, err := lookupAdmin(ctx, tx, op, adminEmail)
		if err != nil {
			return c, err
		}
		return Validate(c, admin.UserID, now)
	})
}

// RejectComplaint records an admin's rejection
func (s *ComplaintService) RejectComplaint(ctx context.Context, complaintID int64, adminEmail, reason string) (*models.Complaint, error) {
	const op = "reject complaint"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		admin, err := lookupAdmin(ctx, tx, op, adminEmail)
		if err != nil {
			return c, err
		}
		return Reject(c, admin.UserID, reason, now)
	})
}

// UpdateStatus is the administrative status override
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID int64, status string) (*models.Complaint, error) {
	const op = "update status"
	next, ok := models.ParseComplaintStatus(status)
	if !ok {
		err := validationError(op, "unknown status %q", status)
		s.metrics.Transition(op, outcome(err))
		return nil, err
	}
	return s.transition(ctx, op, complaintID, func(_ repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		return SetStatus(c, next, now)
	})
}

// UploadProof lets the assigned officer attach proof and resolve the complaint
func (s *ComplaintService) UploadProof(ctx context.Context, complaintID int64, officerEmail, proofRef string) (*models.Complaint, error) {
	const op = "upload proof"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		officer, err := lookupUserByEmail(ctx, tx, op, officerEmail)
		if err != nil {
			return c, err
		}
		return UploadProof(c, officer.UserID, proofRef, now)
	})
}

// RateComplaint records the owner's rating on a resolved complaint
func (s *ComplaintService) RateComplaint(ctx context.Context, complaintID int64, citizenEmail string, rating *int, feedback *string) (*models.Complaint, error) {
	const op = "rate complaint"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		citizen, err := lookupUserByEmail(ctx, tx, op, citizenEmail)
		if err != nil {
			return c, err
		}
		return Rate(c, citizen.UserID, rating, feedback, now)
	})
}

// MarkSatisfied records the owner's satisfaction verdict
func (s *ComplaintService) MarkSatisfied(ctx context.Context, complaintID int64, citizenEmail string, satisfied bool) (*models.Complaint, error) {
	const op = "mark satisfied"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		citizen, err := lookupUserByEmail(ctx, tx, op, citizenEmail)
		if err != nil {
			return c, err
		}
		return MarkSatisfied(c, citizen.UserID, satisfied, now)
	})
}

// ReopenComplaint sends a resolved complaint back to IN_PROGRESS
func (s *ComplaintService) ReopenComplaint(ctx context.Context, complaintID int64, citizenEmail, reason string) (*models.Complaint, error) {
	const op = "reopen complaint"
	return s.transition(ctx, op, complaintID, func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error) {
		citizen, err := lookupUserByEmail(ctx, tx, op, citizenEmail)
		if err != nil {
			return c, err
		}
		return Reopen(c, citizen.UserID, reason, now)
	})
}

type transitionFunc func(tx repository.Store, c models.Complaint, now time.Time) (models.Complaint, error)

func (s *ComplaintService) transition(ctx context.Context, op string, complaintID int64, fn transitionFunc) (*models.Complaint, error) {
	var out models.Complaint
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		c, err := loadComplaint(ctx, tx, op, complaintID)
		if err != nil {
			return err
		}
		next, err := fn(tx, *c, s.clock.Now())
		if err != nil {
			return err
		}
		if err := tx.Complaints().UpdateComplaint(ctx, &next); err != nil {
			return fmt.Errorf("failed to save complaint %d: %w", complaintID, err)
		}
		out = next
		return nil
	})
	s.metrics.Transition(op, outcome(err))
	if err != nil {
		return nil, err
	}
	log.Printf("[COMPLAINT] %s complaint_id=%d status=%s", op, out.ComplaintID, out.Status)
	return &out, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func loadComplaint(ctx context.Context, store repository.Store, op string, complaintID int64) (*models.Complaint, error) {
	c, err := store.Complaints().GetComplaintByID(ctx, complaintID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(op, "complaint %d not found", complaintID)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Viewer is the authenticated caller of a read operation
type Viewer struct {
	Email string
	Role  models.Role
}

// authorizeView lets officers and admins read any complaint and citizens only their own.
func authorizeView(ctx context.Context, store repository.Store, op string, c *models.Complaint, viewer Viewer) error {
	if viewer.Role == models.RoleOfficer || viewer.Role == models.RoleAdmin {
		return nil
	}
	u, err := lookupUserByEmail(ctx, store, op, viewer.Email)
	if errors.Is(err, ErrNotFound) {
		return forbidden(op, "caller %s is not a registered user", viewer.Email)
	}
	if err != nil {
		return err
	}
	if c.CitizenID != u.UserID {
		return forbidden(op, "complaint %d does not belong to the caller", c.ComplaintID)
	}
	return nil
}

func lookupUserByEmail(ctx context.Context, store repository.Store, op, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, validationError(op, "caller email is required")
	}
	u, err := store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(op, "user %s not found", email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func lookupUserByID(ctx context.Context, store repository.Store, op string, userID int64) (*models.User, error) {
	u, err := store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(op, "user %d not found", userID)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func lookupAdmin(ctx context.Context, store repository.Store, op, email string) (*models.User, error) {
	u, err := lookupUserByEmail(ctx, store, op, email)
	if err != nil {
		return nil, err
	}
	if u.Role != models.RoleAdmin {
		return nil, forbidden(op, "user %s is not an administrator", email)
	}
	return u, nil
}

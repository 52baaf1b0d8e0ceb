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

	"github.com/google/uuid"
)

// AdminSelector picks the administrator an escalated complaint is reassigned to.
// It runs inside the escalation transaction.
type AdminSelector interface {
	SelectAdmin(ctx context.Context, tx repository.Store) (*models.User, error)
}

// FirstAdmin selects the administrator with the lowest id
type FirstAdmin struct{}

func (FirstAdmin) SelectAdmin(ctx context.Context, tx repository.Store) (*models.User, error) {
	admins, err := tx.Users().ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	if len(admins) == 0 {
		return nil, systemFailure("select administrator", "no administrator available for escalation")
	}
	return &admins[0], nil
}

// LeastLoadedAdmin selects the administrator with the fewest active complaints, lowest id on ties
type LeastLoadedAdmin struct{}

func (LeastLoadedAdmin) SelectAdmin(ctx context.Context, tx repository.Store) (*models.User, error) {
	admins, err := tx.Users().ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	if len(admins) == 0 {
		return nil, systemFailure("select administrator", "no administrator available for escalation")
	}
	ranked, err := NewWorkloadBalancer(tx).RecommendOfficer(ctx, admins)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].UserID == ranked[0].OfficerID {
			return &admins[i], nil
		}
	}
	return &admins[0], nil
}

// AdminSelectorByName maps a config value to a selector: "first" (default) or "least_loaded".
func AdminSelectorByName(name string) (AdminSelector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first":
		return FirstAdmin{}, nil
	case "least_loaded":
		return LeastLoadedAdmin{}, nil
	}
	return nil, fmt.Errorf("unknown admin selection policy %q", name)
}

// EscalationService reassigns overdue or manually escalated complaints to an administrator
// and keeps the append-only escalation log.
type EscalationService struct {
	store    repository.Store
	selector AdminSelector
	clock    utils.Clock
	metrics  *metrics.Recorder // optional
}

// NewEscalationService creates a new escalation service
func NewEscalationService(store repository.Store, selector AdminSelector, clock utils.Clock, recorder *metrics.Recorder) *EscalationService {
	if selector == nil {
		selector = FirstAdmin{}
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &EscalationService{store: store, selector: selector, clock: clock, metrics: recorder}
}

// Escalate reassigns the complaint to an administrator and appends an escalation record.
// Escalating an already-escalated complaint is a no-op that returns the complaint unchanged.
func (s *EscalationService) Escalate(ctx context.Context, complaintID int64, reason string) (*models.Complaint, error) {
	c, escalated, err := s.escalate(ctx, complaintID, reason, nil)
	if err != nil {
		return nil, err
	}
	if escalated {
		s.metrics.Escalated("manual")
	}
	return c, nil
}

// escalate runs one escalation in its own transaction. When sweepAt is set the complaint is
// re-checked against the overdue predicate as of sweepAt and skipped if it no longer matches.
func (s *EscalationService) escalate(ctx context.Context, complaintID int64, reason string, sweepAt *time.Time) (*models.Complaint, bool, error) {
	const op = "escalate complaint"
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, false, validationError(op, "escalation reason is required")
	}

	var (
		out        models.Complaint
		escalated  bool
		adminID    int64
		skipReason string
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		c, err := loadComplaint(ctx, tx, op, complaintID)
		if err != nil {
			return err
		}
		if c.Escalated {
			out, skipReason = *c, "already escalated"
			return nil
		}
		if sweepAt != nil && !c.IsOverdue(*sweepAt) {
			out, skipReason = *c, fmt.Sprintf("no longer overdue (status %s)", c.Status)
			return nil
		}
		admin, err := s.selector.SelectAdmin(ctx, tx)
		if err != nil {
			return err
		}
		next, record := ApplyEscalation(*c, admin.UserID, reason, s.clock.Now())
		if err := tx.Escalations().CreateEscalation(ctx, &record); err != nil {
			return err
		}
		if err := tx.Complaints().UpdateComplaint(ctx, &next); err != nil {
			return fmt.Errorf("failed to save escalated complaint %d: %w", complaintID, err)
		}
		out, escalated, adminID = next, true, admin.UserID
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !escalated {
		log.Printf("[ESCALATION] WARNING complaint_id=%d %s, skipping", complaintID, skipReason)
		s.metrics.EscalationSkipped()
		return &out, false, nil
	}
	log.Printf("[ESCALATION] escalated complaint_id=%d to admin_id=%d reason=%q", complaintID, adminID, reason)
	return &out, true, nil
}

// SweepOverdue escalates every complaint whose deadline is before now, that is not in a
// terminal status and not already escalated. Each complaint is escalated in its own
// transaction; a failure is recorded in the summary and the sweep moves on. The error
// return is reserved for failing to select candidates at all.
func (s *EscalationService) SweepOverdue(ctx context.Context, now time.Time) (models.SweepSummary, error) {
	summary := models.SweepSummary{
		RunID:     uuid.NewString(),
		SweepTime: now,
		StartedAt: s.clock.Now(),
		Escalated: []int64{},
		Skipped:   []int64{},
		Failed:    []models.SweepFailure{},
	}

	overdue, err := s.store.Complaints().FindOverdue(ctx, now)
	if err != nil {
		s.metrics.SweepAborted()
		log.Printf("[SWEEP] run_id=%s failed to select overdue complaints: %v", summary.RunID, err)
		return summary, fmt.Errorf("failed to find overdue complaints: %w", err)
	}
	summary.Candidates = len(overdue)
	log.Printf("[SWEEP] run_id=%s found %d overdue complaints", summary.RunID, len(overdue))

	for _, c := range overdue {
		if ctx.Err() != nil {
			summary.Failed = append(summary.Failed, models.SweepFailure{ComplaintID: c.ComplaintID, Error: ctx.Err().Error()})
			continue
		}
		reason := fmt.Sprintf("Automatic escalation: Complaint exceeded deadline of %s", c.Deadline.Time.UTC().Format(time.RFC3339))
		_, escalated, err := s.escalate(ctx, c.ComplaintID, reason, &now)
		switch {
		case err != nil:
			log.Printf("[SWEEP] run_id=%s failed to escalate complaint_id=%d: %v", summary.RunID, c.ComplaintID, err)
			summary.Failed = append(summary.Failed, models.SweepFailure{ComplaintID: c.ComplaintID, Error: err.Error()})
		case escalated:
			s.metrics.Escalated("sweep")
			summary.Escalated = append(summary.Escalated, c.ComplaintID)
		default:
			summary.Skipped = append(summary.Skipped, c.ComplaintID)
		}
	}

	summary.FinishedAt = s.clock.Now()
	s.metrics.SweepFinished(summary.Candidates, len(summary.Failed), summary.FinishedAt.Sub(summary.StartedAt))
	log.Printf("[SWEEP] run_id=%s done escalated=%d skipped=%d failed=%d",
		summary.RunID, len(summary.Escalated), len(summary.Skipped), len(summary.Failed))
	return summary, nil
}

// History returns a complaint's escalation records, most recent first
func (s *EscalationService) History(ctx context.Context, complaintID int64) ([]models.ComplaintEscalation, error) {
	if _, err := loadComplaint(ctx, s.store, "escalation history", complaintID); err != nil {
		return nil, err
	}
	return s.store.Escalations().ListByComplaint(ctx, complaintID)
}

// ViewHistory is History on behalf of a caller. Citizens may only read the
// history of complaints they filed.
func (s *EscalationService) ViewHistory(ctx context.Context, complaintID int64, viewer Viewer) ([]models.ComplaintEscalation, error) {
	const op = "escalation history"
	c, err := loadComplaint(ctx, s.store, op, complaintID)
	if err != nil {
		return nil, err
	}
	if err := authorizeView(ctx, s.store, op, c, viewer); err != nil {
		return nil, err
	}
	return s.store.Escalations().ListByComplaint(ctx, complaintID)
}

// ResolveEscalation marks an escalation record resolved. The complaint itself is untouched.
func (s *EscalationService) ResolveEscalation(ctx context.Context, escalationID int64) (*models.ComplaintEscalation, error) {
	const op = "resolve escalation"
	var out *models.ComplaintEscalation
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Escalations().MarkResolved(ctx, escalationID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound(op, "escalation %d not found", escalationID)
			}
			return err
		}
		e, err := tx.Escalations().GetEscalationByID(ctx, escalationID)
		if err != nil {
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[ESCALATION] resolved escalation_id=%d complaint_id=%d", out.EscalationID, out.ComplaintID)
	return out, nil
}

// Unresolved returns every escalation record not yet resolved
func (s *EscalationService) Unresolved(ctx context.Context) ([]models.ComplaintEscalation, error) {
	return s.store.Escalations().ListUnresolved(ctx)
}

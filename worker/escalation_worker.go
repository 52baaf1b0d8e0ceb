package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"grievance/models"
	"grievance/utils"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule fires at the top of every hour
const DefaultSchedule = "0 * * * *"

// SweepFunc runs one overdue sweep as of now
type SweepFunc func(ctx context.Context, now time.Time) (models.SweepSummary, error)

// EscalationScanner triggers the overdue sweep on a cron schedule. Fire times are evaluated
// against the injected clock, so tests drive it with RunDue instead of waiting. Runs are not
// serialized against manual triggers; the sweep tolerates overlap because escalation is a
// no-op on already-escalated complaints.
type EscalationScanner struct {
	sweep      SweepFunc
	clock      utils.Clock
	schedule   cron.Schedule
	spec       string
	runOnStart bool

	mu       sync.Mutex
	next     time.Time
	stopChan chan struct{}
	done     chan struct{}
	running  bool
}

// NewEscalationScanner parses spec (standard five-field cron) and schedules the first fire
// time after the clock's current time.
func NewEscalationScanner(sweep SweepFunc, clock utils.Clock, spec string, runOnStart bool) (*EscalationScanner, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid escalation schedule %q: %w", spec, err)
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &EscalationScanner{
		sweep:      sweep,
		clock:      clock,
		schedule:   schedule,
		spec:       spec,
		runOnStart: runOnStart,
		next:       schedule.Next(clock.Now()),
	}, nil
}

// NextRun returns the next scheduled fire time
func (s *EscalationScanner) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// RunDue runs one sweep if the clock has reached the next fire time. Missed fire times
// collapse into a single run; the schedule then resumes from the current time.
func (s *EscalationScanner) RunDue(ctx context.Context) bool {
	now := s.clock.Now()
	s.mu.Lock()
	if now.Before(s.next) {
		s.mu.Unlock()
		return false
	}
	s.next = s.schedule.Next(now)
	s.mu.Unlock()

	s.runOnce(ctx, now)
	return true
}

// RunNow runs a sweep immediately without touching the schedule
func (s *EscalationScanner) RunNow(ctx context.Context) (models.SweepSummary, error) {
	return s.runOnce(ctx, s.clock.Now())
}

func (s *EscalationScanner) runOnce(ctx context.Context, now time.Time) (models.SweepSummary, error) {
	log.Printf("[SCANNER] sweep starting at %s", now.Format(time.RFC3339))
	summary, err := s.sweep(ctx, now)
	if err != nil {
		log.Printf("[SCANNER] sweep failed: %v", err)
		return summary, err
	}
	log.Printf("[SCANNER] sweep %s completed: %d candidates, %d escalated, %d failed",
		summary.RunID, summary.Candidates, len(summary.Escalated), len(summary.Failed))
	return summary, nil
}

// Start runs the scanner loop in a separate goroutine until Stop or ctx cancellation
func (s *EscalationScanner) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[SCANNER] Escalation scanner is already running")
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	log.Printf("[SCANNER] Escalation scanner started (schedule: %q, next run: %s)", s.spec, s.NextRun().Format(time.RFC3339))
	go s.run(ctx)
}

// Stop stops the scanner and waits for an in-flight sweep to return
func (s *EscalationScanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()

	log.Println("[SCANNER] Stopping escalation scanner...")
	<-done
	log.Println("[SCANNER] Escalation scanner stopped")
}

func (s *EscalationScanner) run(ctx context.Context) {
	defer close(s.done)

	if s.runOnStart {
		s.RunNow(ctx)
	}

	for {
		wait := s.NextRun().Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			s.RunDue(ctx)
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"grievance/models"
	"grievance/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type escalationFixture struct {
	store   *memStore
	clock   *utils.ManualClock
	svc     *EscalationService
	officer models.User
	admin   models.User
}

func newEscalationFixture() *escalationFixture {
	store := newMemStore()
	clock := utils.NewManualClock(t0)
	f := &escalationFixture{
		store:   store,
		clock:   clock,
		svc:     NewEscalationService(store, FirstAdmin{}, clock, nil),
		officer: store.addUser("officer", models.RoleOfficer),
	}
	f.admin = store.addUser("admin", models.RoleAdmin)
	return f
}

func (f *escalationFixture) assigned(priority models.Priority, assignedAt time.Time) models.Complaint {
	return f.store.addComplaint(models.Complaint{
		Department:        "Sanitation",
		Status:            models.StatusInProgress,
		Priority:          priority,
		Deadline:          sql.NullTime{Time: ComputeDeadline(priority, assignedAt), Valid: true},
		AssignedOfficerID: sql.NullInt64{Int64: f.officer.UserID, Valid: true},
	})
}

func TestSweepOverdue_EscalatesOnceAfterDeadline(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	c := f.assigned(models.PriorityHigh, t0)

	sweepAt := f.clock.Advance(49 * time.Hour)
	summary, err := f.svc.SweepOverdue(ctx, sweepAt)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Candidates)
	assert.Equal(t, []int64{c.ComplaintID}, summary.Escalated)
	assert.Empty(t, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	stored := f.store.complaints[c.ComplaintID]
	assert.True(t, stored.Escalated)
	assert.Equal(t, f.admin.UserID, stored.AssignedOfficerID.Int64)
	assert.False(t, stored.EscalatedAt.Time.Before(sweepAt))
	assert.Contains(t, stored.EscalationReason.String, "Automatic escalation: Complaint exceeded deadline of")

	history, err := f.svc.History(ctx, c.ComplaintID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, f.officer.UserID, history[0].OriginalOfficerID.Int64)
	assert.Equal(t, f.admin.UserID, history[0].EscalatedToID)
	assert.False(t, history[0].Resolved)

	summary, err = f.svc.SweepOverdue(ctx, f.clock.Advance(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.Candidates)
	assert.Empty(t, summary.Escalated)

	history, err = f.svc.History(ctx, c.ComplaintID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSweepOverdue_SkipsTerminalAndNotYetDue(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	notDue := f.assigned(models.PriorityLow, t0)
	resolved := f.assigned(models.PriorityHigh, t0)
	resolved.Status = models.StatusResolved
	f.store.complaints[resolved.ComplaintID] = resolved
	rejected := f.assigned(models.PriorityHigh, t0)
	rejected.Status = models.StatusRejected
	f.store.complaints[rejected.ComplaintID] = rejected
	unassigned := f.store.addComplaint(models.Complaint{Status: models.StatusPending})

	summary, err := f.svc.SweepOverdue(ctx, t0.Add(100*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.Candidates)

	for _, id := range []int64{notDue.ComplaintID, resolved.ComplaintID, rejected.ComplaintID, unassigned.ComplaintID} {
		assert.False(t, f.store.complaints[id].Escalated, "complaint %d", id)
	}
	assert.Empty(t, f.store.escalations)
}

func TestSweepOverdue_RechecksCandidateBeforeEscalating(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	resolvedMeanwhile := f.assigned(models.PriorityHigh, t0)
	rejectedMeanwhile := f.assigned(models.PriorityHigh, t0)
	stillOverdue := f.assigned(models.PriorityHigh, t0)

	f.store.afterOverdue = func() {
		c := f.store.complaints[resolvedMeanwhile.ComplaintID]
		c.Status = models.StatusResolved
		f.store.complaints[c.ComplaintID] = c
		c = f.store.complaints[rejectedMeanwhile.ComplaintID]
		c.Status = models.StatusRejected
		f.store.complaints[c.ComplaintID] = c
	}

	summary, err := f.svc.SweepOverdue(ctx, t0.Add(49*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Candidates)
	assert.Equal(t, []int64{stillOverdue.ComplaintID}, summary.Escalated)
	assert.ElementsMatch(t, []int64{resolvedMeanwhile.ComplaintID, rejectedMeanwhile.ComplaintID}, summary.Skipped)
	assert.Empty(t, summary.Failed)

	for _, id := range []int64{resolvedMeanwhile.ComplaintID, rejectedMeanwhile.ComplaintID} {
		stored := f.store.complaints[id]
		assert.False(t, stored.Escalated, "complaint %d", id)
		assert.Equal(t, f.officer.UserID, stored.AssignedOfficerID.Int64)
	}
	assert.Len(t, f.store.escalations, 1)
}

func TestSweepOverdue_IsolatesItemFailures(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	first := f.assigned(models.PriorityHigh, t0)
	broken := f.assigned(models.PriorityHigh, t0)
	last := f.assigned(models.PriorityMedium, t0)
	f.store.failUpdate[broken.ComplaintID] = errors.New("deadlock detected")

	summary, err := f.svc.SweepOverdue(ctx, t0.Add(97*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Candidates)
	assert.ElementsMatch(t, []int64{first.ComplaintID, last.ComplaintID}, summary.Escalated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, broken.ComplaintID, summary.Failed[0].ComplaintID)
	assert.Contains(t, summary.Failed[0].Error, "deadlock detected")

	assert.True(t, f.store.complaints[first.ComplaintID].Escalated)
	assert.True(t, f.store.complaints[last.ComplaintID].Escalated)
	assert.False(t, f.store.complaints[broken.ComplaintID].Escalated)

	history, err := f.svc.History(ctx, broken.ComplaintID)
	require.NoError(t, err)
	assert.Empty(t, history, "failed escalation must not leave a record behind")

	// the next sweep retries the failed complaint
	delete(f.store.failUpdate, broken.ComplaintID)
	summary, err = f.svc.SweepOverdue(ctx, t0.Add(98*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{broken.ComplaintID}, summary.Escalated)
}

func TestSweepOverdue_NoAdministrator(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	officer := store.addUser("officer", models.RoleOfficer)
	c := store.addComplaint(models.Complaint{
		Status:            models.StatusInProgress,
		Deadline:          sql.NullTime{Time: t0, Valid: true},
		AssignedOfficerID: sql.NullInt64{Int64: officer.UserID, Valid: true},
	})
	svc := NewEscalationService(store, nil, utils.NewManualClock(t0.Add(time.Hour)), nil)

	summary, err := svc.SweepOverdue(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, c.ComplaintID, summary.Failed[0].ComplaintID)
	assert.False(t, store.complaints[c.ComplaintID].Escalated)

	_, err = svc.Escalate(ctx, c.ComplaintID, "manual")
	assert.ErrorIs(t, err, ErrSystemFailure)
}

func TestSweepOverdue_CandidateQueryFailure(t *testing.T) {
	f := newEscalationFixture()
	f.store.failOverdue = errors.New("connection refused")

	_, err := f.svc.SweepOverdue(context.Background(), t0)
	assert.Error(t, err)
}

func TestEscalate_AlreadyEscalatedIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	c := f.assigned(models.PriorityHigh, t0)

	first, err := f.svc.Escalate(ctx, c.ComplaintID, "citizen called twice")
	require.NoError(t, err)
	assert.True(t, first.Escalated)

	f.clock.Advance(time.Hour)
	second, err := f.svc.Escalate(ctx, c.ComplaintID, "again")
	require.NoError(t, err)
	assert.Equal(t, first.EscalatedAt, second.EscalatedAt)
	assert.Equal(t, "citizen called twice", second.EscalationReason.String)
	assert.Len(t, f.store.escalations, 1)
}

func TestEscalate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()

	_, err := f.svc.Escalate(ctx, 999, "late")
	assert.ErrorIs(t, err, ErrNotFound)

	c := f.assigned(models.PriorityHigh, t0)
	_, err = f.svc.Escalate(ctx, c.ComplaintID, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLeastLoadedAdmin(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	busy := f.admin
	idle := f.store.addUser("idle-admin", models.RoleAdmin)
	assignN(f.store, busy.UserID, 3, models.StatusInProgress)
	c := f.assigned(models.PriorityHigh, t0)

	svc := NewEscalationService(f.store, LeastLoadedAdmin{}, f.clock, nil)
	got, err := svc.Escalate(ctx, c.ComplaintID, "overdue")
	require.NoError(t, err)
	assert.Equal(t, idle.UserID, got.AssignedOfficerID.Int64)
}

func TestAdminSelectorByName(t *testing.T) {
	sel, err := AdminSelectorByName("")
	require.NoError(t, err)
	assert.IsType(t, FirstAdmin{}, sel)

	sel, err = AdminSelectorByName("least_loaded")
	require.NoError(t, err)
	assert.IsType(t, LeastLoadedAdmin{}, sel)

	_, err = AdminSelectorByName("random")
	assert.Error(t, err)
}

func TestResolveEscalationAndUnresolved(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	a := f.assigned(models.PriorityHigh, t0)
	b := f.assigned(models.PriorityHigh, t0)
	_, err := f.svc.Escalate(ctx, a.ComplaintID, "one")
	require.NoError(t, err)
	_, err = f.svc.Escalate(ctx, b.ComplaintID, "two")
	require.NoError(t, err)

	open, err := f.svc.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)

	resolved, err := f.svc.ResolveEscalation(ctx, open[0].EscalationID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	// the complaint keeps its escalated flag
	assert.True(t, f.store.complaints[resolved.ComplaintID].Escalated)

	open, err = f.svc.Unresolved(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	_, err = f.svc.ResolveEscalation(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.History(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewHistory_CitizenOwnership(t *testing.T) {
	ctx := context.Background()
	f := newEscalationFixture()
	owner := f.store.addUser("owner", models.RoleCitizen)
	neighbor := f.store.addUser("neighbor", models.RoleCitizen)
	c := f.store.addComplaint(models.Complaint{
		CitizenID:         owner.UserID,
		Status:            models.StatusInProgress,
		AssignedOfficerID: sql.NullInt64{Int64: f.officer.UserID, Valid: true},
	})
	_, err := f.svc.Escalate(ctx, c.ComplaintID, "stuck")
	require.NoError(t, err)

	history, err := f.svc.ViewHistory(ctx, c.ComplaintID, Viewer{Email: owner.Email, Role: models.RoleCitizen})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = f.svc.ViewHistory(ctx, c.ComplaintID, Viewer{Email: f.officer.Email, Role: models.RoleOfficer})
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.svc.ViewHistory(ctx, c.ComplaintID, Viewer{Email: neighbor.Email, Role: models.RoleCitizen})
	assert.ErrorIs(t, err, ErrForbidden)
}

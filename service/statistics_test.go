package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"grievance/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_AllKeysPresent(t *testing.T) {
	ctx := context.Background()
	f := newComplaintFixture()
	f.store.addComplaint(models.Complaint{Status: models.StatusPending, Priority: models.PriorityHigh})
	f.store.addComplaint(models.Complaint{Status: models.StatusResolved, Priority: models.PriorityLow})
	f.store.addComplaint(models.Complaint{Status: models.StatusResolved, Priority: models.PriorityLow})

	stats, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, map[models.ComplaintStatus]int64{
		models.StatusPending: 1, models.StatusInProgress: 0, models.StatusResolved: 2, models.StatusRejected: 0,
	}, stats.ByStatus)
	assert.Equal(t, map[models.Priority]int64{
		models.PriorityHigh: 1, models.PriorityMedium: 0, models.PriorityLow: 2,
	}, stats.ByPriority)
}

func TestOfficerRatings(t *testing.T) {
	ctx := context.Background()
	f := newComplaintFixture()
	rated := func(rating int32, satisfied bool, age time.Duration) {
		f.store.addComplaint(models.Complaint{
			Status:            models.StatusResolved,
			AssignedOfficerID: sql.NullInt64{Int64: f.officer.UserID, Valid: true},
			Rating:            sql.NullInt32{Int32: rating, Valid: true},
			Feedback:          sql.NullString{String: "ok", Valid: true},
			Satisfied:         satisfied,
			Department:        "Roads",
			RatedAt:           sql.NullTime{Time: t0.Add(-age / 2), Valid: true},
			CreatedAt:         t0.Add(-age),
		})
	}
	rated(5, true, time.Hour)
	rated(4, true, 2*time.Hour)
	rated(4, false, 3*time.Hour)
	f.store.addComplaint(models.Complaint{
		Status:            models.StatusInProgress,
		AssignedOfficerID: sql.NullInt64{Int64: f.officer.UserID, Valid: true},
	})

	stats, err := f.svc.OfficerRatings(ctx, f.officer.Email)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRatings)
	assert.Equal(t, 4.33, stats.AverageRating)
	assert.Equal(t, int64(2), stats.SatisfiedCount)
	assert.Equal(t, 66.67, stats.SatisfactionRate)
	assert.Equal(t, map[int]int64{1: 0, 2: 0, 3: 0, 4: 2, 5: 1}, stats.RatingDistribution)
	require.Len(t, stats.RecentRatings, 3)
	assert.Equal(t, int32(5), stats.RecentRatings[0].Rating)
	assert.Equal(t, "Roads", stats.RecentRatings[0].Department)
	require.NotNil(t, stats.RecentRatings[0].RatedAt)
	assert.True(t, stats.RecentRatings[0].RatedAt.Equal(t0.Add(-30*time.Minute)))
}

func TestOfficerRatings_CapsRecentAtTen(t *testing.T) {
	var list []models.Complaint
	for i := 0; i < 12; i++ {
		list = append(list, models.Complaint{ComplaintID: int64(i + 1), Rating: sql.NullInt32{Int32: 3, Valid: true}})
	}
	stats := summarizeRatings(1, list)
	assert.Equal(t, int64(12), stats.TotalRatings)
	assert.Len(t, stats.RecentRatings, 10)
	assert.Equal(t, int64(1), stats.RecentRatings[0].ComplaintID)
	assert.Nil(t, stats.RecentRatings[0].RatedAt)
	assert.Equal(t, 0.0, stats.SatisfactionRate)
}

func TestOfficerRatings_NoRatings(t *testing.T) {
	stats := summarizeRatings(1, nil)
	assert.Zero(t, stats.TotalRatings)
	assert.Zero(t, stats.AverageRating)
	assert.Empty(t, stats.RecentRatings)
}

func TestAnalytics(t *testing.T) {
	ctx := context.Background()
	f := newComplaintFixture()
	deadline := sql.NullTime{Time: t0, Valid: true}
	f.store.addComplaint(models.Complaint{Department: "Roads", Zone: sql.NullString{String: "North", Valid: true},
		Deadline: deadline, ResolvedAt: sql.NullTime{Time: t0.Add(-time.Hour), Valid: true}})
	f.store.addComplaint(models.Complaint{Department: "Roads", Zone: sql.NullString{String: "North", Valid: true},
		Deadline: deadline, ResolvedAt: sql.NullTime{Time: t0.Add(time.Hour), Valid: true}})

	a, err := f.svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Roads": 2}, a.ByDepartment)
	assert.Equal(t, map[string]int64{"North": 2}, a.ByZone)
	assert.Equal(t, int64(1), a.SLAMet)
	assert.Equal(t, int64(1), a.SLAViolated)
	require.Len(t, a.RedZones, 1)
	assert.Equal(t, int64(2), a.RedZones[0].Count)
}

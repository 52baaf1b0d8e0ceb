package models

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseComplaintStatus(t *testing.T) {
	s, ok := ParseComplaintStatus(" in_progress ")
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, s)

	_, ok = ParseComplaintStatus("ARCHIVED")
	assert.False(t, ok)
	_, ok = ParseComplaintStatus("")
	assert.False(t, ok)
}

func TestParsePriorityAndRole(t *testing.T) {
	p, ok := ParsePriority("medium")
	assert.True(t, ok)
	assert.Equal(t, PriorityMedium, p)
	_, ok = ParsePriority("URGENT")
	assert.False(t, ok)

	r, ok := ParseRole("Admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)
	_, ok = ParseRole("MAYOR")
	assert.False(t, ok)
}

func TestComplaintIsOverdue(t *testing.T) {
	now := time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
	past := sql.NullTime{Time: now.Add(-time.Minute), Valid: true}

	cases := []struct {
		name string
		c    Complaint
		want bool
	}{
		{"past deadline in progress", Complaint{Status: StatusInProgress, Deadline: past}, true},
		{"past deadline pending", Complaint{Status: StatusPending, Deadline: past}, true},
		{"no deadline", Complaint{Status: StatusInProgress}, false},
		{"deadline equal to now", Complaint{Status: StatusInProgress, Deadline: sql.NullTime{Time: now, Valid: true}}, false},
		{"resolved", Complaint{Status: StatusResolved, Deadline: past}, false},
		{"rejected", Complaint{Status: StatusRejected, Deadline: past}, false},
		{"already escalated", Complaint{Status: StatusInProgress, Deadline: past, Escalated: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.c.IsOverdue(now))
		})
	}
}

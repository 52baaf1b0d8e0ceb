package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewManualClock(t0)
	assert.Equal(t, t0, c.Now())

	got := c.Advance(49 * time.Hour)
	assert.Equal(t, t0.Add(49*time.Hour), got)
	assert.Equal(t, got, c.Now())

	c.Set(t0)
	assert.Equal(t, t0, c.Now())
}

func TestSystemClockIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, SystemClock{}.Now().Location())
}

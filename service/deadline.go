package service

import (
	"time"

	"grievance/models"
)

// SLA windows per priority
const (
	HighPriorityWindow   = 48 * time.Hour
	MediumPriorityWindow = 96 * time.Hour
	LowPriorityWindow    = 168 * time.Hour
)

// ComputeDeadline returns the resolution deadline for a complaint of the given priority
// assigned at now. Unknown or empty priorities get the LOW window.
func ComputeDeadline(priority models.Priority, now time.Time) time.Time {
	switch priority {
	case models.PriorityHigh:
		return now.Add(HighPriorityWindow)
	case models.PriorityMedium:
		return now.Add(MediumPriorityWindow)
	case models.PriorityLow:
		return now.Add(LowPriorityWindow)
	}
	return now.Add(LowPriorityWindow)
}

// PriorityOrLow parses priority text, coercing unrecognized values to LOW.
func PriorityOrLow(s string) models.Priority {
	if p, ok := models.ParsePriority(s); ok {
		return p
	}
	return models.PriorityLow
}

package models

import "time"

// OfficerWorkload is one row of the workload balancer output
type OfficerWorkload struct {
	OfficerID            int64   `json:"officer_id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Department           *string `json:"department"`
	ActiveComplaintCount int64   `json:"active_complaint_count"`
	Recommended          bool    `json:"recommended"`
}

// ComplaintStatistics summarizes the complaint population
type ComplaintStatistics struct {
	Total      int64                     `json:"total"`
	ByStatus   map[ComplaintStatus]int64 `json:"by_status"`
	ByPriority map[Priority]int64        `json:"by_priority"`
}

// RedZone is a zone and address pair with repeated complaints
type RedZone struct {
	Zone    *string `json:"zone"`
	Address *string `json:"address"`
	Count   int64   `json:"count"`
}

// ComplaintAnalytics groups the department, zone and SLA breakdowns
type ComplaintAnalytics struct {
	ByDepartment map[string]int64 `json:"by_department"`
	ByZone       map[string]int64 `json:"by_zone"`
	SLAMet       int64            `json:"sla_met"`
	SLAViolated  int64            `json:"sla_violated"`
	RedZones     []RedZone        `json:"red_zones"`
}

// RatingEntry is one rated complaint in an officer's rating history
type RatingEntry struct {
	ComplaintID     int64      `json:"complaint_id"`
	ComplaintNumber string     `json:"complaint_number"`
	Rating          int32      `json:"rating"`
	Feedback        *string    `json:"feedback"`
	Satisfied       bool       `json:"satisfied"`
	RatedAt         *time.Time `json:"rated_at"`
	Department      string     `json:"department"`
}

// OfficerRatingStats aggregates citizen ratings on an officer's complaints
type OfficerRatingStats struct {
	OfficerID          int64         `json:"officer_id"`
	TotalRatings       int64         `json:"total_ratings"`
	AverageRating      float64       `json:"average_rating"`
	SatisfactionRate   float64       `json:"satisfaction_rate"`
	SatisfiedCount     int64         `json:"satisfied_count"`
	RatingDistribution map[int]int64 `json:"rating_distribution"`
	RecentRatings      []RatingEntry `json:"recent_ratings"`
}

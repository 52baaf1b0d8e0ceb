package service

import (
	"context"
	"math"

	"grievance/models"
)

const recentRatingsLimit = 10

// Statistics counts complaints by status and priority. Every status and priority key is present.
func (s *ComplaintService) Statistics(ctx context.Context) (*models.ComplaintStatistics, error) {
	byStatus, err := s.store.Complaints().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.store.Complaints().CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	stats := &models.ComplaintStatistics{
		ByStatus:   make(map[models.ComplaintStatus]int64, len(models.AllStatuses)),
		ByPriority: make(map[models.Priority]int64, len(models.AllPriorities)),
	}
	for _, st := range models.AllStatuses {
		stats.ByStatus[st] = byStatus[st]
		stats.Total += byStatus[st]
	}
	for _, p := range models.AllPriorities {
		stats.ByPriority[p] = byPriority[p]
	}
	return stats, nil
}

// Analytics reports department and zone breakdowns, SLA compliance and red zones
func (s *ComplaintService) Analytics(ctx context.Context) (*models.ComplaintAnalytics, error) {
	complaints := s.store.Complaints()
	byDepartment, err := complaints.CountByDepartment(ctx)
	if err != nil {
		return nil, err
	}
	byZone, err := complaints.CountByZone(ctx)
	if err != nil {
		return nil, err
	}
	met, violated, err := complaints.CountSLA(ctx)
	if err != nil {
		return nil, err
	}
	redZones, err := complaints.FindRedZones(ctx)
	if err != nil {
		return nil, err
	}
	if redZones == nil {
		redZones = []models.RedZone{}
	}
	return &models.ComplaintAnalytics{
		ByDepartment: byDepartment,
		ByZone:       byZone,
		SLAMet:       met,
		SLAViolated:  violated,
		RedZones:     redZones,
	}, nil
}

// OfficerRatings summarizes citizen ratings on the calling officer's complaints
func (s *ComplaintService) OfficerRatings(ctx context.Context, officerEmail string) (*models.OfficerRatingStats, error) {
	officer, err := lookupUserByEmail(ctx, s.store, "officer ratings", officerEmail)
	if err != nil {
		return nil, err
	}
	assigned, err := s.store.Complaints().ListByOfficer(ctx, officer.UserID)
	if err != nil {
		return nil, err
	}
	return summarizeRatings(officer.UserID, assigned), nil
}

// summarizeRatings expects complaints newest first; recent entries keep that order.
func summarizeRatings(officerID int64, complaints []models.Complaint) *models.OfficerRatingStats {
	stats := &models.OfficerRatingStats{
		OfficerID:          officerID,
		RatingDistribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		RecentRatings:      []models.RatingEntry{},
	}
	var sum int64
	for _, c := range complaints {
		if !c.Rating.Valid {
			continue
		}
		stats.TotalRatings++
		sum += int64(c.Rating.Int32)
		stats.RatingDistribution[int(c.Rating.Int32)]++
		if c.Satisfied {
			stats.SatisfiedCount++
		}
		if len(stats.RecentRatings) < recentRatingsLimit {
			entry := models.RatingEntry{
				ComplaintID:     c.ComplaintID,
				ComplaintNumber: c.ComplaintNumber,
				Rating:          c.Rating.Int32,
				Satisfied:       c.Satisfied,
				Department:      c.Department,
			}
			if c.Feedback.Valid {
				fb := c.Feedback.String
				entry.Feedback = &fb
			}
			if c.RatedAt.Valid {
				ratedAt := c.RatedAt.Time
				entry.RatedAt = &ratedAt
			}
			stats.RecentRatings = append(stats.RecentRatings, entry)
		}
	}
	if stats.TotalRatings > 0 {
		stats.AverageRating = round2(float64(sum) / float64(stats.TotalRatings))
		stats.SatisfactionRate = round2(float64(stats.SatisfiedCount) * 100 / float64(stats.TotalRatings))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

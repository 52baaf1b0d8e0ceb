package service

import (
	"context"
	"sort"

	"grievance/models"
	"grievance/repository"
)

// WorkloadBalancer ranks officers by their count of non-terminal complaints. The ranking is
// advisory; the admin performing the assignment may pick anyone.
type WorkloadBalancer struct {
	store repository.Store
}

// NewWorkloadBalancer creates a new workload balancer
func NewWorkloadBalancer(store repository.Store) *WorkloadBalancer {
	return &WorkloadBalancer{store: store}
}

// RecommendOfficer returns officers sorted by ascending active load, ties kept in input
// order. The first entry is flagged recommended. An empty input yields an empty list.
func (b *WorkloadBalancer) RecommendOfficer(ctx context.Context, officers []models.User) ([]models.OfficerWorkload, error) {
	ranked := make([]models.OfficerWorkload, 0, len(officers))
	for _, o := range officers {
		count, err := b.store.Complaints().CountActiveByOfficer(ctx, o.UserID)
		if err != nil {
			return nil, err
		}
		w := models.OfficerWorkload{
			OfficerID:            o.UserID,
			Name:                 o.Name,
			Email:                o.Email,
			ActiveComplaintCount: count,
		}
		if o.Department.Valid {
			dept := o.Department.String
			w.Department = &dept
		}
		ranked = append(ranked, w)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ActiveComplaintCount < ranked[j].ActiveComplaintCount
	})
	if len(ranked) > 0 {
		ranked[0].Recommended = true
	}
	return ranked, nil
}

// OfficersWithWorkload ranks every OFFICER in the directory
func (b *WorkloadBalancer) OfficersWithWorkload(ctx context.Context) ([]models.OfficerWorkload, error) {
	officers, err := b.store.Users().ListByRole(ctx, models.RoleOfficer)
	if err != nil {
		return nil, err
	}
	return b.RecommendOfficer(ctx, officers)
}

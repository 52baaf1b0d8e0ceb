package service

import (
	"context"

	"grievance/models"
)

// FindDuplicates returns other complaints with the same department and location address.
// Matching is exact; a complaint without an address matches only others without one.
func (s *ComplaintService) FindDuplicates(ctx context.Context, complaintID int64) ([]models.Complaint, error) {
	target, err := loadComplaint(ctx, s.store, "find duplicates", complaintID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.Complaints().FindByDepartmentAndAddress(ctx, target.Department, target.LocationAddress)
	if err != nil {
		return nil, err
	}
	duplicates := make([]models.Complaint, 0, len(candidates))
	for _, c := range candidates {
		if c.ComplaintID == target.ComplaintID {
			continue
		}
		duplicates = append(duplicates, c)
	}
	return duplicates, nil
}

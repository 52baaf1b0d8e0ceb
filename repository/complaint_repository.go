package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"grievance/models"
)

const complaintColumns = `
	complaint_id, complaint_number, citizen_id, department, description, photo_ref,
	latitude, longitude, location_address, zone,
	status, validation_status, priority, deadline, assigned_officer_id,
	proof_ref, proof_uploaded_at,
	escalated, escalated_at, escalation_reason,
	rejection_reason, validated_by, validated_at,
	rating, feedback, rated_at, satisfied, satisfied_at,
	reopened, reopened_at, reopen_reason,
	resolved_at, created_at, updated_at`

// ComplaintRepository handles database operations for complaints
type ComplaintRepository struct {
	db DBTX
}

// NewComplaintRepository creates a new complaint repository
func NewComplaintRepository(db DBTX) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	c := &models.Complaint{}
	err := row.Scan(
		&c.ComplaintID, &c.ComplaintNumber, &c.CitizenID, &c.Department, &c.Description, &c.PhotoRef,
		&c.Latitude, &c.Longitude, &c.LocationAddress, &c.Zone,
		&c.Status, &c.ValidationStatus, &c.Priority, &c.Deadline, &c.AssignedOfficerID,
		&c.ProofRef, &c.ProofUploadedAt,
		&c.Escalated, &c.EscalatedAt, &c.EscalationReason,
		&c.RejectionReason, &c.ValidatedBy, &c.ValidatedAt,
		&c.Rating, &c.Feedback, &c.RatedAt, &c.Satisfied, &c.SatisfiedAt,
		&c.Reopened, &c.ReopenedAt, &c.ReopenReason,
		&c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	for _, t := range []*sql.NullTime{
		&c.Deadline, &c.ProofUploadedAt, &c.EscalatedAt, &c.ValidatedAt,
		&c.RatedAt, &c.SatisfiedAt, &c.ReopenedAt, &c.ResolvedAt,
	} {
		*t = utcNull(*t)
	}
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
	return c, nil
}

func (r *ComplaintRepository) queryComplaints(ctx context.Context, query string, args ...interface{}) ([]models.Complaint, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var complaints []models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

// CreateComplaint inserts c and sets its generated id
func (r *ComplaintRepository) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (
			complaint_number, citizen_id, department, description, photo_ref,
			latitude, longitude, location_address, zone,
			status, validation_status, priority, deadline, assigned_officer_id,
			escalated, satisfied, reopened, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		c.ComplaintNumber, c.CitizenID, c.Department, c.Description, c.PhotoRef,
		c.Latitude, c.Longitude, c.LocationAddress, c.Zone,
		string(c.Status), string(c.ValidationStatus), string(c.Priority), utcNull(c.Deadline), c.AssignedOfficerID,
		c.Escalated, c.Satisfied, c.Reopened, utc(c.CreatedAt), utc(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create complaint: %w", err)
	}

	complaintID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get complaint ID: %w", err)
	}
	c.ComplaintID = complaintID
	return nil
}

// GetComplaintByID retrieves a complaint by ID
func (r *ComplaintRepository) GetComplaintByID(ctx context.Context, complaintID int64) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_id = ?`
	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, complaintID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

// GetComplaintByNumber retrieves a complaint by its public reference number
func (r *ComplaintRepository) GetComplaintByNumber(ctx context.Context, number string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE complaint_number = ?`
	c, err := scanComplaint(r.db.QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint by number: %w", err)
	}
	return c, nil
}

// UpdateComplaint writes every mutable workflow column of c
func (r *ComplaintRepository) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		UPDATE complaints SET
			status = ?, validation_status = ?, priority = ?, deadline = ?, assigned_officer_id = ?,
			proof_ref = ?, proof_uploaded_at = ?,
			escalated = ?, escalated_at = ?, escalation_reason = ?,
			rejection_reason = ?, validated_by = ?, validated_at = ?,
			rating = ?, feedback = ?, rated_at = ?, satisfied = ?, satisfied_at = ?,
			reopened = ?, reopened_at = ?, reopen_reason = ?,
			resolved_at = ?, updated_at = ?
		WHERE complaint_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		string(c.Status), string(c.ValidationStatus), string(c.Priority), utcNull(c.Deadline), c.AssignedOfficerID,
		c.ProofRef, utcNull(c.ProofUploadedAt),
		c.Escalated, utcNull(c.EscalatedAt), c.EscalationReason,
		c.RejectionReason, c.ValidatedBy, utcNull(c.ValidatedAt),
		c.Rating, c.Feedback, utcNull(c.RatedAt), c.Satisfied, utcNull(c.SatisfiedAt),
		c.Reopened, utcNull(c.ReopenedAt), c.ReopenReason,
		utcNull(c.ResolvedAt), utc(c.UpdatedAt),
		c.ComplaintID,
	)
	if err != nil {
		return fmt.Errorf("failed to update complaint: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListComplaints returns all complaints, newest first
func (r *ComplaintRepository) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints ORDER BY created_at DESC, complaint_id DESC`
	complaints, err := r.queryComplaints(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	return complaints, nil
}

// ListByCitizen returns the complaints filed by citizenID, newest first
func (r *ComplaintRepository) ListByCitizen(ctx context.Context, citizenID int64) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE citizen_id = ? ORDER BY created_at DESC, complaint_id DESC`
	complaints, err := r.queryComplaints(ctx, query, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints for citizen: %w", err)
	}
	return complaints, nil
}

// ListByOfficer returns the complaints assigned to officerID, newest first
func (r *ComplaintRepository) ListByOfficer(ctx context.Context, officerID int64) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE assigned_officer_id = ? ORDER BY created_at DESC, complaint_id DESC`
	complaints, err := r.queryComplaints(ctx, query, officerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints for officer: %w", err)
	}
	return complaints, nil
}

// FindByDepartmentAndAddress matches department and address exactly. A NULL address
// only matches other NULL addresses.
func (r *ComplaintRepository) FindByDepartmentAndAddress(ctx context.Context, department string, address sql.NullString) ([]models.Complaint, error) {
	var (
		complaints []models.Complaint
		err        error
	)
	if address.Valid {
		query := `SELECT ` + complaintColumns + ` FROM complaints WHERE department = ? AND location_address = ? ORDER BY complaint_id`
		complaints, err = r.queryComplaints(ctx, query, department, address.String)
	} else {
		query := `SELECT ` + complaintColumns + ` FROM complaints WHERE department = ? AND location_address IS NULL ORDER BY complaint_id`
		complaints, err = r.queryComplaints(ctx, query, department)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find complaints by department and address: %w", err)
	}
	return complaints, nil
}

// FindOverdue returns non-terminal, non-escalated complaints whose deadline is before now
func (r *ComplaintRepository) FindOverdue(ctx context.Context, now time.Time) ([]models.Complaint, error) {
	query := `SELECT ` + complaintColumns + `
		FROM complaints
		WHERE deadline IS NOT NULL
		  AND deadline < ?
		  AND status NOT IN (?, ?)
		  AND escalated = ?
		ORDER BY deadline, complaint_id`
	complaints, err := r.queryComplaints(ctx, query, utc(now), string(models.StatusResolved), string(models.StatusRejected), false)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue complaints: %w", err)
	}
	return complaints, nil
}

// CountActiveByOfficer counts non-terminal complaints assigned to officerID
func (r *ComplaintRepository) CountActiveByOfficer(ctx context.Context, officerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM complaints WHERE assigned_officer_id = ? AND status NOT IN (?, ?)`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, officerID, string(models.StatusResolved), string(models.StatusRejected)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active complaints: %w", err)
	}
	return count, nil
}

func (r *ComplaintRepository) countGrouped(ctx context.Context, column string) (map[string]int64, error) {
	query := `SELECT ` + column + `, COUNT(*) FROM complaints WHERE ` + column + ` IS NOT NULL GROUP BY ` + column
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// CountByStatus returns complaint counts for every status, including zero counts
func (r *ComplaintRepository) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error) {
	raw, err := r.countGrouped(ctx, "status")
	if err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}
	counts := make(map[models.ComplaintStatus]int64, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = raw[string(s)]
	}
	return counts, nil
}

// CountByPriority returns complaint counts for every priority, including zero counts
func (r *ComplaintRepository) CountByPriority(ctx context.Context) (map[models.Priority]int64, error) {
	raw, err := r.countGrouped(ctx, "priority")
	if err != nil {
		return nil, fmt.Errorf("failed to count by priority: %w", err)
	}
	counts := make(map[models.Priority]int64, len(models.AllPriorities))
	for _, p := range models.AllPriorities {
		counts[p] = raw[string(p)]
	}
	return counts, nil
}

// CountByDepartment returns complaint counts per department
func (r *ComplaintRepository) CountByDepartment(ctx context.Context) (map[string]int64, error) {
	counts, err := r.countGrouped(ctx, "department")
	if err != nil {
		return nil, fmt.Errorf("failed to count by department: %w", err)
	}
	return counts, nil
}

// CountByZone returns complaint counts per zone; complaints without a zone are not counted
func (r *ComplaintRepository) CountByZone(ctx context.Context) (map[string]int64, error) {
	counts, err := r.countGrouped(ctx, "zone")
	if err != nil {
		return nil, fmt.Errorf("failed to count by zone: %w", err)
	}
	return counts, nil
}

// CountSLA counts resolved complaints that met and missed their deadline
func (r *ComplaintRepository) CountSLA(ctx context.Context) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN resolved_at <= deadline THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN resolved_at > deadline THEN 1 ELSE 0 END), 0)
		FROM complaints
		WHERE resolved_at IS NOT NULL AND deadline IS NOT NULL
	`
	var met, violated int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&met, &violated); err != nil {
		return 0, 0, fmt.Errorf("failed to count SLA compliance: %w", err)
	}
	return met, violated, nil
}

// FindRedZones returns zone and address pairs with more than one complaint, most frequent first
func (r *ComplaintRepository) FindRedZones(ctx context.Context) ([]models.RedZone, error) {
	query := `
		SELECT zone, location_address, COUNT(*) AS complaint_count
		FROM complaints
		GROUP BY zone, location_address
		HAVING COUNT(*) > 1
		ORDER BY complaint_count DESC, zone, location_address
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to find red zones: %w", err)
	}
	defer rows.Close()

	var zones []models.RedZone
	for rows.Next() {
		var zone, address sql.NullString
		var count int64
		if err := rows.Scan(&zone, &address, &count); err != nil {
			return nil, fmt.Errorf("failed to scan red zone: %w", err)
		}
		rz := models.RedZone{Count: count}
		if zone.Valid {
			rz.Zone = &zone.String
		}
		if address.Valid {
			rz.Address = &address.String
		}
		zones = append(zones, rz)
	}
	return zones, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"grievance/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by id or key matches no row
var ErrNotFound = errors.New("record not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ComplaintStore persists complaints
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaintByID(ctx context.Context, complaintID int64) (*models.Complaint, error)
	GetComplaintByNumber(ctx context.Context, number string) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, c *models.Complaint) error
	ListComplaints(ctx context.Context) ([]models.Complaint, error)
	ListByCitizen(ctx context.Context, citizenID int64) ([]models.Complaint, error)
	ListByOfficer(ctx context.Context, officerID int64) ([]models.Complaint, error)
	FindByDepartmentAndAddress(ctx context.Context, department string, address sql.NullString) ([]models.Complaint, error)
	FindOverdue(ctx context.Context, now time.Time) ([]models.Complaint, error)
	CountActiveByOfficer(ctx context.Context, officerID int64) (int64, error)
	CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error)
	CountByPriority(ctx context.Context) (map[models.Priority]int64, error)
	CountByDepartment(ctx context.Context) (map[string]int64, error)
	CountByZone(ctx context.Context) (map[string]int64, error)
	CountSLA(ctx context.Context) (met int64, violated int64, err error)
	FindRedZones(ctx context.Context) ([]models.RedZone, error)
}

// EscalationStore persists the append-only escalation log
type EscalationStore interface {
	CreateEscalation(ctx context.Context, e *models.ComplaintEscalation) error
	GetEscalationByID(ctx context.Context, escalationID int64) (*models.ComplaintEscalation, error)
	ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintEscalation, error)
	ListUnresolved(ctx context.Context) ([]models.ComplaintEscalation, error)
	MarkResolved(ctx context.Context, escalationID int64) error
}

// UserDirectory reads the user directory
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// Store groups the repositories behind one transaction boundary
type Store interface {
	Complaints() ComplaintStore
	Escalations() EscalationStore
	Users() UserDirectory
	// InTx runs fn against a Store bound to a single transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// SQLStore is the database/sql implementation of Store
type SQLStore struct {
	db   *sql.DB
	q    DBTX
	inTx bool
}

// NewSQLStore creates a store over db
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, q: db}
}

func (s *SQLStore) Complaints() ComplaintStore   { return NewComplaintRepository(s.q) }
func (s *SQLStore) Escalations() EscalationStore { return NewEscalationRepository(s.q) }
func (s *SQLStore) Users() UserDirectory         { return NewUserRepository(s.q) }

// InTx begins a transaction, or joins the current one when already inside InTx.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GenerateComplaintNumber generates a unique complaint number
// Format: COMP-YYYYMMDD-{UUID}
func GenerateComplaintNumber(now time.Time) string {
	return fmt.Sprintf("COMP-%s-%s", now.UTC().Format("20060102"), uuid.New().String()[:8])
}

// utc normalizes a timestamp before it is bound, so stored values compare in one zone
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcNull(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

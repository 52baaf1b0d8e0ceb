package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"grievance/models"
	"grievance/repository"
)

// memStore is an in-memory repository.Store. InTx snapshots state and restores it when
// the callback fails, which is enough to observe rollback behavior.
type memStore struct {
	complaints  map[int64]models.Complaint
	escalations map[int64]models.ComplaintEscalation
	users       map[int64]models.User
	nextID      *int64

	failUpdate   map[int64]error // complaint id -> error returned by UpdateComplaint
	failOverdue  error
	overdueCalls int
	afterOverdue func() // runs once candidates are selected, before any escalation
}

func newMemStore() *memStore {
	var next int64
	return &memStore{
		complaints:  map[int64]models.Complaint{},
		escalations: map[int64]models.ComplaintEscalation{},
		users:       map[int64]models.User{},
		nextID:      &next,
		failUpdate:  map[int64]error{},
	}
}

func (s *memStore) id() int64 {
	*s.nextID++
	return *s.nextID
}

func (s *memStore) addUser(name string, role models.Role) models.User {
	u := models.User{UserID: s.id(), Name: name, Email: name + "@example.com", Role: role, Approved: true}
	s.users[u.UserID] = u
	return u
}

func (s *memStore) addComplaint(c models.Complaint) models.Complaint {
	c.ComplaintID = s.id()
	if c.Status == "" {
		c.Status = models.StatusPending
	}
	if c.ValidationStatus == "" {
		c.ValidationStatus = models.ValidationPending
	}
	if c.Priority == "" {
		c.Priority = models.PriorityLow
	}
	s.complaints[c.ComplaintID] = c
	return c
}

func (s *memStore) Complaints() repository.ComplaintStore   { return memComplaints{s} }
func (s *memStore) Escalations() repository.EscalationStore { return memEscalations{s} }
func (s *memStore) Users() repository.UserDirectory         { return memUsers{s} }

func (s *memStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	complaints := make(map[int64]models.Complaint, len(s.complaints))
	for k, v := range s.complaints {
		complaints[k] = v
	}
	escalations := make(map[int64]models.ComplaintEscalation, len(s.escalations))
	for k, v := range s.escalations {
		escalations[k] = v
	}
	if err := fn(s); err != nil {
		s.complaints = complaints
		s.escalations = escalations
		return err
	}
	return nil
}

type memComplaints struct{ s *memStore }

func (m memComplaints) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	c.ComplaintID = m.s.id()
	m.s.complaints[c.ComplaintID] = *c
	return nil
}

func (m memComplaints) GetComplaintByID(ctx context.Context, id int64) (*models.Complaint, error) {
	c, ok := m.s.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m memComplaints) GetComplaintByNumber(ctx context.Context, number string) (*models.Complaint, error) {
	for _, c := range m.s.complaints {
		if c.ComplaintNumber == number {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memComplaints) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	if err := m.s.failUpdate[c.ComplaintID]; err != nil {
		return err
	}
	if _, ok := m.s.complaints[c.ComplaintID]; !ok {
		return repository.ErrNotFound
	}
	m.s.complaints[c.ComplaintID] = *c
	return nil
}

func (m memComplaints) filter(keep func(c models.Complaint) bool) []models.Complaint {
	var out []models.Complaint
	for _, c := range m.s.complaints {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComplaintID < out[j].ComplaintID })
	return out
}

func newestFirst(list []models.Complaint) []models.Complaint {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ComplaintID > list[j].ComplaintID
	})
	return list
}

func (m memComplaints) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	return newestFirst(m.filter(func(models.Complaint) bool { return true })), nil
}

func (m memComplaints) ListByCitizen(ctx context.Context, citizenID int64) ([]models.Complaint, error) {
	return newestFirst(m.filter(func(c models.Complaint) bool { return c.CitizenID == citizenID })), nil
}

func (m memComplaints) ListByOfficer(ctx context.Context, officerID int64) ([]models.Complaint, error) {
	return newestFirst(m.filter(func(c models.Complaint) bool {
		return c.AssignedOfficerID.Valid && c.AssignedOfficerID.Int64 == officerID
	})), nil
}

func (m memComplaints) FindByDepartmentAndAddress(ctx context.Context, department string, address sql.NullString) ([]models.Complaint, error) {
	return m.filter(func(c models.Complaint) bool {
		return c.Department == department && c.LocationAddress == address
	}), nil
}

func (m memComplaints) FindOverdue(ctx context.Context, now time.Time) ([]models.Complaint, error) {
	m.s.overdueCalls++
	if m.s.failOverdue != nil {
		return nil, m.s.failOverdue
	}
	out := m.filter(func(c models.Complaint) bool { return c.IsOverdue(now) })
	if m.s.afterOverdue != nil {
		m.s.afterOverdue()
	}
	return out, nil
}

func (m memComplaints) CountActiveByOfficer(ctx context.Context, officerID int64) (int64, error) {
	var n int64
	for _, c := range m.s.complaints {
		if c.AssignedOfficerID.Valid && c.AssignedOfficerID.Int64 == officerID && !c.Status.IsTerminal() {
			n++
		}
	}
	return n, nil
}

func (m memComplaints) CountByStatus(ctx context.Context) (map[models.ComplaintStatus]int64, error) {
	out := map[models.ComplaintStatus]int64{}
	for _, c := range m.s.complaints {
		out[c.Status]++
	}
	return out, nil
}

func (m memComplaints) CountByPriority(ctx context.Context) (map[models.Priority]int64, error) {
	out := map[models.Priority]int64{}
	for _, c := range m.s.complaints {
		out[c.Priority]++
	}
	return out, nil
}

func (m memComplaints) CountByDepartment(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, c := range m.s.complaints {
		out[c.Department]++
	}
	return out, nil
}

func (m memComplaints) CountByZone(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, c := range m.s.complaints {
		if c.Zone.Valid {
			out[c.Zone.String]++
		}
	}
	return out, nil
}

func (m memComplaints) CountSLA(ctx context.Context) (int64, int64, error) {
	var met, violated int64
	for _, c := range m.s.complaints {
		if !c.ResolvedAt.Valid || !c.Deadline.Valid {
			continue
		}
		if c.ResolvedAt.Time.After(c.Deadline.Time) {
			violated++
		} else {
			met++
		}
	}
	return met, violated, nil
}

func (m memComplaints) FindRedZones(ctx context.Context) ([]models.RedZone, error) {
	counts := map[string]int64{}
	for _, c := range m.s.complaints {
		counts[c.Zone.String+"|"+c.LocationAddress.String]++
	}
	var out []models.RedZone
	for key, n := range counts {
		if n < 2 {
			continue
		}
		parts := strings.SplitN(key, "|", 2)
		zone, addr := parts[0], parts[1]
		out = append(out, models.RedZone{Zone: &zone, Address: &addr, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

type memEscalations struct{ s *memStore }

func (m memEscalations) CreateEscalation(ctx context.Context, e *models.ComplaintEscalation) error {
	e.EscalationID = m.s.id()
	m.s.escalations[e.EscalationID] = *e
	return nil
}

func (m memEscalations) GetEscalationByID(ctx context.Context, id int64) (*models.ComplaintEscalation, error) {
	e, ok := m.s.escalations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (m memEscalations) list(keep func(e models.ComplaintEscalation) bool) []models.ComplaintEscalation {
	var out []models.ComplaintEscalation
	for _, e := range m.s.escalations {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EscalationID < out[j].EscalationID })
	return out
}

func (m memEscalations) ListByComplaint(ctx context.Context, complaintID int64) ([]models.ComplaintEscalation, error) {
	out := m.list(func(e models.ComplaintEscalation) bool { return e.ComplaintID == complaintID })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m memEscalations) ListUnresolved(ctx context.Context) ([]models.ComplaintEscalation, error) {
	return m.list(func(e models.ComplaintEscalation) bool { return !e.Resolved }), nil
}

func (m memEscalations) MarkResolved(ctx context.Context, id int64) error {
	e, ok := m.s.escalations[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Resolved = true
	m.s.escalations[id] = e
	return nil
}

type memUsers struct{ s *memStore }

func (m memUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memUsers) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range m.s.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

package mock

import (
	"context"
	"sort"

	"github.com/mkarpis/jobtrail/pkg/models"
)

// Test helpers and mocks
type Mocks struct {
	UserRepo *mockUserRepo
	JobRepo  *mockJobRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		UserRepo: &mockUserRepo{},
		JobRepo:  &mockJobRepo{},
	}
}

type mockUserRepo struct {
	Stored    *models.User
	CreateErr error
}

func (m *mockUserRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.User{ID: 1, Name: u.Name, Email: u.Email, Created: u.Created, PasswordHash: u.PasswordHash}
	return 1, nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

type mockJobRepo struct {
	Jobs map[string]*models.JobRecord

	CreateErr error
	GetErr    error
	ListErr   error
	UpdateErr error
	DeleteErr error
	StatsErr  error
}

func (m *mockJobRepo) CreateJob(ctx context.Context, j *models.JobRecord) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.Jobs == nil {
		m.Jobs = make(map[string]*models.JobRecord)
	}
	cp := *j
	m.Jobs[j.ID] = &cp
	return nil
}

func (m *mockJobRepo) GetJobByID(ctx context.Context, id string) (*models.JobRecord, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if j, ok := m.Jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (m *mockJobRepo) ListJobsByOwner(ctx context.Context, ownerID int64) ([]models.JobRecord, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []models.JobRecord
	for _, j := range m.Jobs {
		if j.OwnerID == ownerID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].AppliedDate.After(out[k].AppliedDate) })
	return out, nil
}

func (m *mockJobRepo) ListJobsByOwnerAndStatus(ctx context.Context, ownerID int64, status models.Status) ([]models.JobRecord, error) {
	all, err := m.ListJobsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []models.JobRecord
	for _, j := range all {
		if j.Status == status {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *mockJobRepo) UpdateJob(ctx context.Context, j *models.JobRecord) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if _, ok := m.Jobs[j.ID]; !ok {
		return nil
	}
	cp := *j
	m.Jobs[j.ID] = &cp
	return nil
}

func (m *mockJobRepo) DeleteJob(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.Jobs, id)
	return nil
}

func (m *mockJobRepo) CountJobsByStatus(ctx context.Context, ownerID int64) (*models.Stats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	s := &models.Stats{}
	for _, j := range m.Jobs {
		if j.OwnerID != ownerID {
			continue
		}
		s.Total++
		switch j.Status {
		case models.StatusApplied:
			s.Applied++
		case models.StatusInterview:
			s.Interview++
		case models.StatusOffer:
			s.Offer++
		case models.StatusRejected:
			s.Rejected++
		}
	}
	return s, nil
}

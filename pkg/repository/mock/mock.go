package mock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/review/pkg/models"
	"github.com/garnizeh/review/pkg/repository"
)

var ErrDuplicate = errors.New("mock: duplicate key")

var _ repository.RemarkStore = (*Store)(nil)
var _ repository.UserRepo = (*Store)(nil)

type readKey struct {
	submissionID string
	menteeID     string
}

// Store is an in-memory stand-in for the SQLite repository. Setting Err makes
// every call fail with it, which simulates an unreachable database.
type Store struct {
	mu          sync.Mutex
	users       map[string]models.User
	submissions map[string]models.Submission
	reads       map[readKey]models.RemarkRead

	Err error
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.User),
		submissions: make(map[string]models.Submission),
		reads:       make(map[readKey]models.RemarkRead),
	}
}

// ReadRecordCount returns how many read records exist for the pair.
func (m *Store) ReadRecordCount(submissionID, menteeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reads[readKey{submissionID, menteeID}]; ok {
		return 1
	}
	return 0
}

func (m *Store) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (m *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *Store) CreateSubmission(ctx context.Context, s *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.submissions[s.ID]; ok {
		return ErrDuplicate
	}
	m.submissions[s.ID] = clone(*s)
	return nil
}

func (m *Store) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	out := clone(s)
	return &out, nil
}

func (m *Store) UpdateSubmissionRemark(ctx context.Context, id string, remark *string, at *time.Time) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	s.Remark = remark
	s.RemarkUpdatedAt = at
	s = clone(s)
	m.submissions[id] = s
	out := clone(s)
	return &out, nil
}

func (m *Store) ListSubmissionsWithRemark(ctx context.Context, projectID string) ([]models.SubmissionReadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.SubmissionReadState
	for _, s := range m.submissions {
		if s.ProjectID != projectID || s.Remark == nil {
			continue
		}
		out = append(out, m.withReadState(s, s.MenteeID))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RemarkUpdatedAt, out[j].RemarkUpdatedAt
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Store) ListSubmissions(ctx context.Context, menteeID string, projectID *string) ([]models.SubmissionReadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []models.SubmissionReadState
	for _, s := range m.submissions {
		if s.MenteeID != menteeID {
			continue
		}
		if projectID != nil && s.ProjectID != *projectID {
			continue
		}
		out = append(out, m.withReadState(s, menteeID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) GetReadRecord(ctx context.Context, submissionID, menteeID string) (*models.RemarkRead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if rr, ok := m.reads[readKey{submissionID, menteeID}]; ok {
		return &rr, nil
	}
	return nil, nil
}

func (m *Store) UpsertReadRecord(ctx context.Context, submissionID, menteeID string, at time.Time) (*models.RemarkRead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rr := models.RemarkRead{SubmissionID: submissionID, MenteeID: menteeID, ReadAt: at}
	m.reads[readKey{submissionID, menteeID}] = rr
	return &rr, nil
}

// withReadState must be called with m.mu held.
func (m *Store) withReadState(s models.Submission, menteeID string) models.SubmissionReadState {
	st := models.SubmissionReadState{Submission: clone(s)}
	if rr, ok := m.reads[readKey{s.ID, menteeID}]; ok {
		t := rr.ReadAt
		st.ReadAt = &t
	}
	return st
}

func clone(s models.Submission) models.Submission {
	if s.Remark != nil {
		r := *s.Remark
		s.Remark = &r
	}
	if s.RemarkUpdatedAt != nil {
		t := *s.RemarkUpdatedAt
		s.RemarkUpdatedAt = &t
	}
	return s
}

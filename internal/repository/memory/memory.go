// Package memory is an in-process storage driver. It mirrors the unique
// keys and cascades of the MySQL schema and is meant for local runs and
// end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yusufkecer/fit-tracker-backend/internal/domain"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

var (
	_ service.UserRepository   = (*UserRepository)(nil)
	_ service.WeightRepository = (*WeightRepository)(nil)
	_ service.MetricRepository = (*MetricRepository)(nil)
)

// Store holds all tables behind a single lock.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users   map[int64]domain.User
	weights map[int64]domain.WeightEntry
	metrics map[int64]domain.MetricEntry

	nextUser   int64
	nextWeight int64
	nextMetric int64
}

func New() *Store {
	return &Store{
		now:     func() time.Time { return time.Now().UTC() },
		users:   make(map[int64]domain.User),
		weights: make(map[int64]domain.WeightEntry),
		metrics: make(map[int64]domain.MetricEntry),
	}
}

func (s *Store) Users() *UserRepository { return &UserRepository{s} }
func (s *Store) Weights() *WeightRepository { return &WeightRepository{s} }
func (s *Store) Metrics() *MetricRepository { return &MetricRepository{s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	// Usernames compare case-insensitively, like MySQL's default utf8mb4 collation.
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrUsernameTaken
		}
	}
	s.nextUser++
	now := s.now()
	u.ID, u.CreatedAt, u.UpdatedAt = s.nextUser, now, now
	s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, id int64, p domain.ProfileUpdate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil
	}
	p.Apply(&u)
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domainNotFound("user")
	}
	delete(s.users, id)
	for wid, w := range s.weights {
		if w.UserID == id {
			delete(s.weights, wid)
		}
	}
	for mid, m := range s.metrics {
		if m.UserID == id {
			delete(s.metrics, mid)
		}
	}
	return nil
}

type WeightRepository struct{ s *Store }

func (r *WeightRepository) Create(_ context.Context, w *domain.WeightEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.weightOn(w.UserID, w.Date, 0); ok {
		return &domain.DuplicateDateError{Resource: "weight entry", Date: w.Date, ExistingID: id}
	}
	s.nextWeight++
	w.ID, w.CreatedAt = s.nextWeight, s.now()
	s.weights[w.ID] = *w
	return nil
}

func (r *WeightRepository) GetByID(_ context.Context, id int64) (*domain.WeightEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.weights[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WeightRepository) ListByUser(_ context.Context, userID int64) ([]domain.WeightEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []domain.WeightEntry{}
	for _, w := range s.weights {
		if w.UserID == userID {
			entries = append(entries, w)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return newerFirst(entries[i].Date, entries[j].Date, entries[i].ID, entries[j].ID)
	})
	return entries, nil
}

func (r *WeightRepository) Update(_ context.Context, w *domain.WeightEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.weights[w.ID]
	if !ok {
		return domainNotFound("weight entry")
	}
	if id, ok := s.weightOn(w.UserID, w.Date, w.ID); ok {
		return &domain.DuplicateDateError{Resource: "weight entry", Date: w.Date, ExistingID: id}
	}
	stored.Weight, stored.Date = w.Weight, w.Date
	s.weights[w.ID] = stored
	*w = stored
	return nil
}

func (r *WeightRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.weights, id)
	return nil
}

// weightOn finds an entry of userID on date other than skip.
func (s *Store) weightOn(userID int64, date domain.Date, skip int64) (int64, bool) {
	for id, w := range s.weights {
		if id != skip && w.UserID == userID && w.Date.Equal(date) {
			return id, true
		}
	}
	return 0, false
}

type MetricRepository struct{ s *Store }

func (r *MetricRepository) Upsert(_ context.Context, m *domain.MetricEntry) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.metricOn(m.UserID, m.MetricType, m.Date, 0); ok {
		stored := s.metrics[id]
		stored.Value = clone(m.Value)
		s.metrics[id] = stored
		*m = stored
		return false, nil
	}
	s.nextMetric++
	m.ID, m.CreatedAt = s.nextMetric, s.now()
	m.Value = clone(m.Value)
	s.metrics[m.ID] = *m
	return true, nil
}

func (r *MetricRepository) GetByID(_ context.Context, id int64) (*domain.MetricEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[id]
	if !ok {
		return nil, nil
	}
	m.Value = clone(m.Value)
	return &m, nil
}

func (r *MetricRepository) List(_ context.Context, f domain.MetricFilter) ([]domain.MetricEntry, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []domain.MetricEntry{}
	for _, m := range s.metrics {
		if m.UserID != f.UserID {
			continue
		}
		if f.MetricType != "" && m.MetricType != f.MetricType {
			continue
		}
		if f.From != nil && m.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && m.Date.After(*f.To) {
			continue
		}
		m.Value = clone(m.Value)
		entries = append(entries, m)
	}
	sort.Slice(entries, func(i, j int) bool {
		return newerFirst(entries[i].Date, entries[j].Date, entries[i].ID, entries[j].ID)
	})
	return entries, nil
}

func (r *MetricRepository) Update(_ context.Context, m *domain.MetricEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.metrics[m.ID]
	if !ok {
		return domainNotFound("metric entry")
	}
	if id, ok := s.metricOn(m.UserID, m.MetricType, m.Date, m.ID); ok {
		return &domain.DuplicateDateError{Resource: m.MetricType + " entry", Date: m.Date, ExistingID: id}
	}
	stored.Value, stored.Date = clone(m.Value), m.Date
	s.metrics[m.ID] = stored
	return nil
}

func (r *MetricRepository) Delete(_ context.Context, id int64) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.metrics, id)
	return nil
}

func (s *Store) metricOn(userID int64, metricType string, date domain.Date, skip int64) (int64, bool) {
	for id, m := range s.metrics {
		if id != skip && m.UserID == userID && m.MetricType == metricType && m.Date.Equal(date) {
			return id, true
		}
	}
	return 0, false
}

func newerFirst(a, b domain.Date, aID, bID int64) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}

func clone(v domain.MetricValue) domain.MetricValue {
	if v == nil {
		return nil
	}
	return append(domain.MetricValue(nil), v...)
}

func domainNotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, domain.ErrNotFound)
}

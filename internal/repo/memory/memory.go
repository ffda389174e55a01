package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/repo"
)

var _ repo.ServiceStore = (*Store)(nil)
var _ repo.IncidentStore = (*Store)(nil)

type serviceRecord struct {
	svc     domain.Service
	samples []int
}

// Store keeps everything in process memory. It mirrors the postgres
// adapter's semantics (ring-buffer history, idempotent incident close) so
// the daemon can run without a database and tests don't need one.
type Store struct {
	mu         sync.RWMutex
	maxHistory int
	services   map[domain.ServiceID]*serviceRecord
	order      []domain.ServiceID
	incidents  []*domain.Incident
	nextID     int64
}

func New() *Store {
	return &Store{
		maxHistory: domain.MaxHistory,
		services:   make(map[domain.ServiceID]*serviceRecord),
		nextID:     1,
	}
}

// NewWithHistory caps the per-service history at max instead of
// domain.MaxHistory. Tests use small caps to exercise eviction.
func NewWithHistory(max int) *Store {
	s := New()
	if max > 0 {
		s.maxHistory = max
	}
	return s
}

func (m *Store) UpsertService(ctx context.Context, name, target string) (*domain.Service, error) {
	id, err := domain.NormalizeID(name)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.services[id]
	if !ok {
		rec = &serviceRecord{svc: domain.Service{ID: id}}
		m.services[id] = rec
		m.order = append(m.order, id)
	}
	rec.svc.Name = name
	rec.svc.Target = target
	out := rec.svc
	return &out, nil
}

func (m *Store) List(ctx context.Context) ([]domain.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Service, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.services[id].svc)
	}
	return out, nil
}

func (m *Store) AppendSample(ctx context.Context, id domain.ServiceID, latencyMS int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.services[id]
	if !ok {
		return fmt.Errorf("append sample: unknown service %q", id)
	}
	if len(rec.samples) >= m.maxHistory {
		rec.samples = rec.samples[1:]
	}
	rec.samples = append(rec.samples, latencyMS)
	rec.svc.IsOnline = latencyMS > 0
	return nil
}

func (m *Store) CountRecentFailures(ctx context.Context, id domain.ServiceID, window int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.services[id]
	if !ok {
		return 0, fmt.Errorf("count failures: unknown service %q", id)
	}
	samples := rec.samples
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}
	n := 0
	for _, s := range samples {
		if s == 0 {
			n++
		}
	}
	return n, nil
}

func (m *Store) RecentSamples(ctx context.Context, id domain.ServiceID, limit int) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("recent samples: unknown service %q", id)
	}
	samples := rec.samples
	if limit > 0 && len(samples) > limit {
		samples = samples[len(samples)-limit:]
	}
	out := make([]int, len(samples))
	copy(out, samples)
	return out, nil
}

func (m *Store) ListOpen(ctx context.Context) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Incident
	for _, i := range m.incidents {
		if i.Open() {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m *Store) ListAll(ctx context.Context) ([]domain.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Incident, 0, len(m.incidents))
	for _, i := range m.incidents {
		out = append(out, *i)
	}
	return out, nil
}

func (m *Store) Create(ctx context.Context, id domain.ServiceID, description string) (*domain.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.services[id]
	if !ok {
		return nil, fmt.Errorf("create incident: unknown service %q", id)
	}
	inc := &domain.Incident{
		ID:          m.nextID,
		ServiceID:   id,
		ServiceName: rec.svc.Name,
		StartTime:   time.Now().UTC(),
		Description: description,
	}
	m.nextID++
	m.incidents = append(m.incidents, inc)
	out := *inc
	return &out, nil
}

func (m *Store) CloseIncident(ctx context.Context, incidentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.incidents {
		if i.ID == incidentID && i.Open() {
			now := time.Now().UTC()
			i.EndTime = &now
		}
	}
	return nil
}

package repo

import (
	"context"

	"github.com/hamed0406/statuswatch/internal/domain"
)

// Ports (interfaces) — swap in any storage adapter.

// ServiceStore persists services and their bounded response time history.
type ServiceStore interface {
	// UpsertService creates or updates a service keyed by the id derived
	// from name. Re-adding an existing id updates name and target only.
	UpsertService(ctx context.Context, name, target string) (*domain.Service, error)
	List(ctx context.Context) ([]domain.Service, error)
	// AppendSample appends one latency sample (0 = failure) and updates
	// the online flag in one atomic operation. At domain.MaxHistory
	// entries the oldest sample is evicted first.
	AppendSample(ctx context.Context, id domain.ServiceID, latencyMS int) error
	// CountRecentFailures counts zero-latency samples among the trailing
	// window entries of the service's history.
	CountRecentFailures(ctx context.Context, id domain.ServiceID, window int) (int, error)
	// RecentSamples returns up to limit trailing samples, oldest first.
	RecentSamples(ctx context.Context, id domain.ServiceID, limit int) ([]int, error)
}

// IncidentStore persists the incident lifecycle.
type IncidentStore interface {
	ListOpen(ctx context.Context) ([]domain.Incident, error)
	ListAll(ctx context.Context) ([]domain.Incident, error)
	Create(ctx context.Context, id domain.ServiceID, description string) (*domain.Incident, error)
	// CloseIncident is idempotent: closing an already-closed incident is
	// a no-op.
	CloseIncident(ctx context.Context, incidentID int64) error
}

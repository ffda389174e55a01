package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/repo"
)

// FailureThreshold is the number of consecutive failed samples required
// before an incident is opened. A single failed probe is usually a blip;
// five in a row at the 60s cadence means five minutes of downtime.
const FailureThreshold = 5

// serviceState caches whether we believe an incident is currently open
// for a service. Storage stays the source of truth: the flag only spares
// a storage round trip on the common path and is re-derived from the open
// incident list whenever a transition is about to happen.
type serviceState struct {
	hasOpenIncident bool
}

// IncidentTracker converts probe outcomes into incident open/close
// transitions. Evaluate is safe to call from concurrent per-service
// probe goroutines; a single mutex guards the state map, and the critical
// section covers only the flag read/mutate plus the storage re-check that
// the transition depends on.
type IncidentTracker struct {
	Logger    *zap.Logger
	Services  repo.ServiceStore
	Incidents repo.IncidentStore

	mu     sync.Mutex
	states map[string]*serviceState
}

func NewIncidentTracker(logger *zap.Logger, ss repo.ServiceStore, is repo.IncidentStore) *IncidentTracker {
	return &IncidentTracker{
		Logger:    logger,
		Services:  ss,
		Incidents: is,
		states:    make(map[string]*serviceState),
	}
}

// Track ensures a runtime state exists for the service name. States are
// created lazily and never removed; a service deleted from storage just
// leaves a dormant entry behind.
func (t *IncidentTracker) Track(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.states[name]; !ok {
		t.states[name] = &serviceState{}
	}
}

// Evaluate records the probe outcome for svc and applies the incident
// state machine. The sample is persisted first; if that fails the
// evaluation for this service is abandoned for the cycle (other services
// are unaffected).
func (t *IncidentTracker) Evaluate(ctx context.Context, svc domain.Service, out probe.CheckResult) error {
	sample := 0
	if out.Success {
		sample = out.LatencyMS
	}
	if err := t.Services.AppendSample(ctx, svc.ID, sample); err != nil {
		return fmt.Errorf("append sample for %s: %w", svc.ID, err)
	}

	if out.Success {
		return t.evaluateSuccess(ctx, svc)
	}
	return t.evaluateFailure(ctx, svc, out)
}

func (t *IncidentTracker) evaluateFailure(ctx context.Context, svc domain.Service, out probe.CheckResult) error {
	failures, err := t.Services.CountRecentFailures(ctx, svc.ID, FailureThreshold)
	if err != nil {
		return fmt.Errorf("count failures for %s: %w", svc.ID, err)
	}
	if failures < FailureThreshold {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.state(svc.Name)
	if state.hasOpenIncident {
		return nil
	}

	// The flag can be stale (fresh process, lost update), so re-check
	// storage before creating anything.
	open, err := t.Incidents.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open incidents: %w", err)
	}
	for _, inc := range open {
		if inc.ServiceID == svc.ID {
			state.hasOpenIncident = true
			return nil
		}
	}

	inc, err := t.Incidents.Create(ctx, svc.ID, incidentDescription(svc, out))
	if err != nil {
		return fmt.Errorf("create incident for %s: %w", svc.ID, err)
	}
	state.hasOpenIncident = true
	t.Logger.Warn("incident_opened",
		zap.Int64("incident_id", inc.ID),
		zap.String("service_id", string(svc.ID)),
		zap.String("description", inc.Description),
	)
	return nil
}

func (t *IncidentTracker) evaluateSuccess(ctx context.Context, svc domain.Service) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	state := t.state(svc.Name)
	if !state.hasOpenIncident {
		return nil
	}

	open, err := t.Incidents.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("list open incidents: %w", err)
	}
	// Close every match, not just the first: earlier races may have left
	// duplicate open incidents behind.
	for _, inc := range open {
		if inc.ServiceID != svc.ID {
			continue
		}
		if err := t.Incidents.CloseIncident(ctx, inc.ID); err != nil {
			return fmt.Errorf("close incident %d: %w", inc.ID, err)
		}
		t.Logger.Info("incident_closed",
			zap.Int64("incident_id", inc.ID),
			zap.String("service_id", string(svc.ID)),
		)
	}
	state.hasOpenIncident = false
	return nil
}

// state returns the runtime entry for name; callers hold t.mu.
func (t *IncidentTracker) state(name string) *serviceState {
	s, ok := t.states[name]
	if !ok {
		s = &serviceState{}
		t.states[name] = s
	}
	return s
}

func incidentDescription(svc domain.Service, out probe.CheckResult) string {
	if out.StatusCode != 0 {
		return fmt.Sprintf("Service %s is down: HTTP %d error", svc.Name, out.StatusCode)
	}
	return fmt.Sprintf("Service %s is down after %d consecutive failures", svc.Name, FailureThreshold)
}

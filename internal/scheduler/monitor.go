package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/statuswatch/internal/domain"
	"github.com/hamed0406/statuswatch/internal/probe"
	"github.com/hamed0406/statuswatch/internal/repo"
)

// DefaultInterval is the sleep between probe cycles.
const DefaultInterval = 60 * time.Second

// Monitor drives the probe cycles: list services, probe them all
// concurrently, feed every outcome to the incident tracker, sleep,
// repeat. One goroutine per service, joined before the sleep, so a slow
// target delays the cycle but never overlaps it.
type Monitor struct {
	Logger    *zap.Logger
	Services  repo.ServiceStore
	Tracker   *IncidentTracker
	HTTP      probe.Checker
	Minecraft probe.Checker
	Interval  time.Duration
	Timeout   time.Duration
}

func NewMonitor(
	logger *zap.Logger,
	ss repo.ServiceStore,
	tracker *IncidentTracker,
	httpChecker, mcChecker probe.Checker,
	interval time.Duration,
	timeout time.Duration,
) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = probe.DefaultTimeout
	}
	return &Monitor{
		Logger:    logger,
		Services:  ss,
		Tracker:   tracker,
		HTTP:      httpChecker,
		Minecraft: mcChecker,
		Interval:  interval,
		Timeout:   timeout,
	}
}

// Run starts the loop with an immediate pass, then one pass per tick.
// Stops when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.Interval)
	defer t.Stop()

	m.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("monitor_stopped")
			return
		case <-t.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single probe cycle.
func (m *Monitor) RunOnce(ctx context.Context) {
	services, err := m.Services.List(ctx)
	if err != nil {
		m.Logger.Warn("monitor_list_error", zap.Error(err))
		return
	}
	if len(services) == 0 {
		return
	}

	for _, svc := range services {
		m.Tracker.Track(svc.Name)
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, svc := range services {
		wg.Add(1)
		go func(svc domain.Service) {
			defer wg.Done()
			m.probeOne(ctx, svc)
		}(svc)
	}
	wg.Wait()

	m.Logger.Info("cycle_done",
		zap.Int("services", len(services)),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (m *Monitor) probeOne(ctx context.Context, svc domain.Service) {
	kind, addr := domain.ParseTarget(svc.Target)
	checker := m.HTTP
	if kind == domain.KindMinecraft {
		checker = m.Minecraft
	}

	cctx, cancel := context.WithTimeout(ctx, m.Timeout)
	defer cancel()
	out := checker.Check(cctx, addr)

	if err := m.Tracker.Evaluate(ctx, svc, out); err != nil {
		// Per-service errors are contained here; the cycle goes on.
		m.Logger.Warn("evaluate_error",
			zap.String("service_id", string(svc.ID)),
			zap.String("target", svc.Target),
			zap.Error(err),
		)
		return
	}

	m.Logger.Debug("service_probed",
		zap.String("service_id", string(svc.ID)),
		zap.String("kind", kind.String()),
		zap.Bool("up", out.Success),
		zap.Int("latency_ms", out.LatencyMS),
		zap.Int("status", out.StatusCode),
	)
}

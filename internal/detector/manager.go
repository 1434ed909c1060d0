package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/EdwardH92/CliffDive/internal/metrics"
)

// Sink consumes classified interactions, normally the session tracker.
type Sink func(ctx context.Context, it event.Interaction) error

// Manager owns the per-tab monitors. Monitors live in an expiring LRU
// so tabs that stop sending signals age out on their own even when no
// close message ever arrives.
type Manager struct {
	monitors *expirable.LRU[int, *Monitor]
	clk      clock.Clock
	logger   zerolog.Logger
	sink     Sink
	retry    *Buffer

	monitorOpts    MonitorOptions
	flushInterval  time.Duration
	healthInterval time.Duration
}

// NewManager creates a manager from detector configuration.
func NewManager(cfg config.DetectorConfig, clk clock.Clock, logger zerolog.Logger, sink Sink) (*Manager, error) {
	debounce, err := time.ParseDuration(cfg.Debounce)
	if err != nil {
		return nil, fmt.Errorf("invalid debounce: %w", err)
	}
	cooldown, err := time.ParseDuration(cfg.ResponseCooldown)
	if err != nil {
		return nil, fmt.Errorf("invalid response_cooldown: %w", err)
	}
	healthInterval, err := time.ParseDuration(cfg.HealthCheckInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid health_check_interval: %w", err)
	}
	flushInterval, err := time.ParseDuration(cfg.FlushInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid flush_interval: %w", err)
	}
	monitorTTL, err := time.ParseDuration(cfg.MonitorTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid monitor_ttl: %w", err)
	}

	m := &Manager{
		clk:    clk,
		logger: logger.With().Str("component", "detector").Logger(),
		sink:   sink,
		retry:  NewBuffer(cfg.BufferSize),
		monitorOpts: MonitorOptions{
			Debounce:       debounce,
			Cooldown:       cooldown,
			HealthInterval: healthInterval,
		},
		flushInterval:  flushInterval,
		healthInterval: healthInterval,
	}
	m.monitors = expirable.NewLRU[int, *Monitor](cfg.MonitorCacheSize, nil, monitorTTL)

	return m, nil
}

// Handle classifies one signal for the named platform. Monitors are
// created lazily and replaced when a tab navigates to a different
// platform.
func (m *Manager) Handle(ctx context.Context, sig event.Signal, platformName string) {
	metrics.SignalsTotal.WithLabelValues(string(sig.Kind)).Inc()

	mon, ok := m.monitors.Get(sig.TabID)
	if !ok || mon.Platform() != platformName {
		mon = NewMonitor(sig.TabID, ForPlatform(platformName), m.clk, m.monitorOpts)
		m.monitors.Add(sig.TabID, mon)
		metrics.MonitorsActive.Set(float64(m.monitors.Len()))
		m.logger.Debug().
			Int("tab_id", sig.TabID).
			Str("platform", platformName).
			Msg("Monitor created")
	}

	it, ok := mon.Observe(sig)
	if !ok {
		return
	}

	if err := m.sink(ctx, it); err != nil {
		m.logger.Warn().Err(err).
			Int("tab_id", it.TabID).
			Str("kind", string(it.Kind)).
			Msg("Interaction delivery failed, buffering for retry")
		m.retry.Push(it)
	}
}

// Forget drops the monitor for a closed tab.
func (m *Manager) Forget(tabID int) {
	m.monitors.Remove(tabID)
	metrics.MonitorsActive.Set(float64(m.monitors.Len()))
}

// Flush redelivers buffered interactions, requeueing any that fail
// again.
func (m *Manager) Flush(ctx context.Context) {
	items := m.retry.Drain()
	for _, it := range items {
		if err := m.sink(ctx, it); err != nil {
			m.retry.Push(it)
		}
	}
}

// Pending returns the number of interactions awaiting redelivery.
func (m *Manager) Pending() int {
	return m.retry.Len()
}

// Run drives the flush and health check loops until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	flush := time.NewTicker(m.flushInterval)
	defer flush.Stop()
	health := time.NewTicker(m.healthInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush.C:
			m.Flush(ctx)
		case <-health.C:
			m.healthSweep()
		}
	}
}

func (m *Manager) healthSweep() {
	for _, mon := range m.monitors.Values() {
		if !mon.HealthCheck() {
			m.logger.Debug().
				Int("tab_id", mon.tabID).
				Str("platform", mon.Platform()).
				Msg("Monitor went quiet, re-armed")
		}
	}
	metrics.MonitorsActive.Set(float64(m.monitors.Len()))
}

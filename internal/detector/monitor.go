package detector

import (
	"sync"
	"time"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/event"
)

// MonitorOptions tune per-tab signal handling.
type MonitorOptions struct {
	// Debounce coalesces bursts of mutation-style signals; only the
	// first signal of a burst is classified.
	Debounce time.Duration
	// Cooldown is the minimum spacing between emitted interactions.
	Cooldown time.Duration
	// HealthInterval is the quiet period after which the monitor
	// re-arms its debounce and cooldown state.
	HealthInterval time.Duration
}

// Monitor tracks classification state for a single tab.
type Monitor struct {
	mu    sync.Mutex
	tabID int
	det   Detector
	clk   clock.Clock
	opts  MonitorOptions

	lastMutation time.Time
	lastEmit     time.Time
	lastSeen     time.Time
}

// NewMonitor creates a monitor for one tab on one platform.
func NewMonitor(tabID int, det Detector, clk clock.Clock, opts MonitorOptions) *Monitor {
	return &Monitor{tabID: tabID, det: det, clk: clk, opts: opts}
}

// Platform returns the platform name the monitor classifies for.
func (m *Monitor) Platform() string { return m.det.Name() }

// Observe classifies one signal. It returns the resulting interaction
// and true when the signal produced one; debounced, cooled-down and
// unclassifiable signals return false.
func (m *Monitor) Observe(sig event.Signal) (event.Interaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.lastSeen = now

	if sig.Kind == event.SignalDOMAdded || sig.Kind == event.SignalAttrChanged {
		if !m.lastMutation.IsZero() && now.Sub(m.lastMutation) < m.opts.Debounce {
			m.lastMutation = now
			return event.Interaction{}, false
		}
		m.lastMutation = now
	}

	kind, ok := m.det.Classify(sig)
	if !ok {
		return event.Interaction{}, false
	}

	if !m.lastEmit.IsZero() && now.Sub(m.lastEmit) < m.opts.Cooldown {
		return event.Interaction{}, false
	}
	m.lastEmit = now

	return event.Interaction{
		TabID:   m.tabID,
		Kind:    kind,
		URL:     sig.URL,
		At:      now,
		Network: sig.Kind == event.SignalNetworkRequest,
	}, true
}

// HealthCheck re-arms a monitor that has gone quiet and reports
// whether it was still healthy. A quiet monitor loses its debounce
// and cooldown state so the next signal classifies immediately.
func (m *Monitor) HealthCheck() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	if m.lastSeen.IsZero() || now.Sub(m.lastSeen) < m.opts.HealthInterval {
		return true
	}
	m.lastMutation = time.Time{}
	m.lastEmit = time.Time{}
	return false
}

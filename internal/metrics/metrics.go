package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Message protocol metrics
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_messages_total",
			Help: "Total extension messages processed by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	MessageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cliffdive_message_duration_seconds",
			Help:    "Message handling duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"type"},
	)

	RateLimitedMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cliffdive_rate_limited_messages_total",
			Help: "Messages rejected by the per-tab rate limiter",
		},
	)

	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_sessions_started_total",
			Help: "Sessions created per platform",
		},
		[]string{"platform"},
	)

	SessionsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_sessions_ended_total",
			Help: "Sessions closed per platform and validation outcome",
		},
		[]string{"platform", "outcome"},
	)

	SessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cliffdive_session_duration_seconds",
			Help:    "Validated session duration in seconds",
			Buckets: []float64{5, 30, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
		[]string{"platform"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cliffdive_active_sessions",
			Help: "Number of currently open sessions",
		},
	)

	InteractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_interactions_total",
			Help: "Interactions recorded per platform and kind",
		},
		[]string{"platform", "kind"},
	)

	PrivacySuppressed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cliffdive_privacy_suppressed_total",
			Help: "Session creations suppressed by work-hours settings",
		},
	)

	// Detector metrics
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_signals_total",
			Help: "Raw page signals received per kind",
		},
		[]string{"kind"},
	)

	SignalsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cliffdive_signals_dropped_total",
			Help: "Signals dropped from full per-tab buffers",
		},
	)

	MonitorsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cliffdive_monitors_active",
			Help: "Number of live per-tab detector monitors",
		},
	)

	// Storage metrics
	SnapshotSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_snapshot_saves_total",
			Help: "Snapshot persistence operations by outcome",
		},
		[]string{"outcome"},
	)

	BackupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliffdive_backups_total",
			Help: "Backup copy operations by outcome",
		},
		[]string{"outcome"},
	)

	BackupRestores = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cliffdive_backup_restores_total",
			Help: "Times the primary snapshot was restored from backup",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		MessagesTotal,
		MessageDuration,
		RateLimitedMessages,
		SessionsStarted,
		SessionsEnded,
		SessionDuration,
		ActiveSessions,
		InteractionsTotal,
		PrivacySuppressed,
		SignalsTotal,
		SignalsDropped,
		MonitorsActive,
		SnapshotSaves,
		BackupsTotal,
		BackupRestores,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			// Use systemd socket-activated listener
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			// Create and bind listener ourselves
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}

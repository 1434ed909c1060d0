// Package tracker owns the per-tab session state machine and the
// persisted usage snapshot.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/EdwardH92/CliffDive/internal/clock"
	"github.com/EdwardH92/CliffDive/internal/config"
	"github.com/EdwardH92/CliffDive/internal/event"
	"github.com/EdwardH92/CliffDive/internal/metrics"
	"github.com/EdwardH92/CliffDive/internal/platform"
	"github.com/EdwardH92/CliffDive/internal/storage"
)

// Options holds parsed tracker configuration.
type Options struct {
	InactivityTimeout  time.Duration
	SweepInterval      time.Duration
	MinSessionDuration time.Duration
	MaxSessionDuration time.Duration
	MinInteractionGap  time.Duration
	MaxInteractionGap  time.Duration
	PersistEvery       int
	BackupInterval     time.Duration
}

// OptionsFromConfig parses the duration fields of the tracking config.
func OptionsFromConfig(cfg config.TrackingConfig) (Options, error) {
	var opts Options
	var err error

	parse := func(name, value string, dst *time.Duration) {
		if err != nil {
			return
		}
		var d time.Duration
		if d, err = time.ParseDuration(value); err != nil {
			err = fmt.Errorf("invalid %s: %w", name, err)
			return
		}
		*dst = d
	}

	parse("inactivity_timeout", cfg.InactivityTimeout, &opts.InactivityTimeout)
	parse("sweep_interval", cfg.SweepInterval, &opts.SweepInterval)
	parse("min_session_duration", cfg.MinSessionDuration, &opts.MinSessionDuration)
	parse("max_session_duration", cfg.MaxSessionDuration, &opts.MaxSessionDuration)
	parse("min_interaction_gap", cfg.MinInteractionGap, &opts.MinInteractionGap)
	parse("max_interaction_gap", cfg.MaxInteractionGap, &opts.MaxInteractionGap)
	parse("backup_interval", cfg.BackupInterval, &opts.BackupInterval)
	if err != nil {
		return Options{}, err
	}

	opts.PersistEvery = cfg.PersistEvery
	if opts.PersistEvery <= 0 {
		opts.PersistEvery = 5
	}
	return opts, nil
}

// Tracker manages active sessions and the usage snapshot.
type Tracker struct {
	usageStore storage.UsageStore
	clk        clock.Clock
	opts       Options
	logger     zerolog.Logger

	mu         sync.Mutex
	snapshot   *storage.Snapshot
	active     map[int]*storage.Session // key: tabID
	lastBackup time.Time
}

// New creates a tracker. Call Initialize before serving traffic.
func New(usageStore storage.UsageStore, clk clock.Clock, opts Options, logger zerolog.Logger) *Tracker {
	return &Tracker{
		usageStore: usageStore,
		clk:        clk,
		opts:       opts,
		logger:     logger.With().Str("component", "tracker").Logger(),
		snapshot:   storage.NewSnapshot(),
		active:     make(map[int]*storage.Session),
	}
}

// Initialize loads the persisted snapshot, falling back to the backup
// copy when the primary is missing or unreadable. A fresh backup is
// written after a successful load.
func (t *Tracker) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap, err := t.usageStore.Load(ctx)
	switch {
	case err == nil:
		storage.Repair(snap)
		t.snapshot = snap
		t.logger.Info().
			Int("sessions", len(snap.Sessions)).
			Int("platforms", len(snap.PlatformUsage)).
			Msg("Usage data loaded")
		if err := t.usageStore.Backup(ctx, t.clk.Now()); err != nil {
			t.logger.Warn().Err(err).Msg("Initial backup failed")
			metrics.BackupsTotal.WithLabelValues("error").Inc()
		} else {
			t.lastBackup = t.clk.Now()
			metrics.BackupsTotal.WithLabelValues("ok").Inc()
		}

	case errors.Is(err, storage.ErrNotFound):
		t.logger.Info().Msg("No usage data found, starting fresh")
		t.snapshot = storage.NewSnapshot()

	default:
		t.logger.Error().Err(err).Msg("Usage data unreadable, attempting backup restore")
		record, backupErr := t.usageStore.LoadBackup(ctx)
		if backupErr != nil || record.Data == nil {
			t.logger.Warn().Msg("No backup available, starting fresh")
			t.snapshot = storage.NewSnapshot()
			return nil
		}
		storage.Repair(record.Data)
		t.snapshot = record.Data
		metrics.BackupRestores.Inc()
		if err := t.saveLocked(ctx); err != nil {
			return fmt.Errorf("persist restored snapshot: %w", err)
		}
		t.logger.Info().
			Time("backup_time", record.Timestamp).
			Msg("Snapshot restored from backup")
	}

	return nil
}

// Run drives the sweep loop until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep(ctx)
		}
	}
}

// EnsureSession opens a session for the tab when its URL belongs to a
// tracked platform and no session is open yet. Returns true when a
// session is active for the tab after the call.
func (t *Tracker) EnsureSession(ctx context.Context, tabID int, rawURL string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ensureSessionLocked(tabID, rawURL) != nil
}

func (t *Tracker) ensureSessionLocked(tabID int, rawURL string) *storage.Session {
	if s, ok := t.active[tabID]; ok && s.Active {
		return s
	}

	match, ok := platform.Detect(rawURL)
	if !ok {
		return nil
	}

	now := t.clk.Now()
	if t.snapshot.PrivacySettings.WorkHoursOnly &&
		!t.snapshot.PrivacySettings.WorkHours.Contains(now.Hour()) {
		t.logger.Debug().
			Int("tab_id", tabID).
			Int("hour", now.Hour()).
			Msg("Session suppressed outside work hours")
		metrics.PrivacySuppressed.Inc()
		return nil
	}

	s := &storage.Session{
		ID:           fmt.Sprintf("%d-%d", tabID, now.UnixMilli()),
		TabID:        tabID,
		Platform:     *match,
		StartTime:    now,
		LastActivity: now,
		Active:       true,
	}
	t.active[tabID] = s
	metrics.SessionsStarted.WithLabelValues(match.Name).Inc()
	metrics.ActiveSessions.Set(float64(len(t.active)))
	t.logger.Info().
		Str("session_id", s.ID).
		Str("platform", match.Name).
		Int("tab_id", tabID).
		Msg("Session started")
	return s
}

// Record applies one classified interaction to the tab's session,
// opening one lazily when the URL still matches a tracked platform.
// Returns true when a session was updated.
func (t *Tracker) Record(ctx context.Context, it event.Interaction) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.active[it.TabID]
	if s == nil || !s.Active {
		s = t.ensureSessionLocked(it.TabID, it.URL)
		if s == nil {
			return false, nil
		}
	}

	s.Interactions++
	s.LastActivity = t.clk.Now()
	switch it.Kind {
	case event.MessageSent:
		s.MessagesSent++
	case event.ResponseReceived:
		s.MessagesReceived++
	}
	metrics.InteractionsTotal.WithLabelValues(s.Platform.Name, string(it.Kind)).Inc()

	// Interim persists write the snapshot as-is; open sessions fold
	// into aggregates only when they close valid.
	if it.Network || s.Interactions%t.opts.PersistEvery == 0 {
		if err := t.saveLocked(ctx); err != nil {
			return true, err
		}
	}

	return true, nil
}

// TabClosed ends the tab's session, validating and folding it.
func (t *Tracker) TabClosed(ctx context.Context, tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeSessionLocked(ctx, tabID, "tab closed")
}

// TabFocused refreshes the activity time of the focused tab's session.
func (t *Tracker) TabFocused(tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.active[tabID]; ok && s.Active {
		s.LastActivity = t.clk.Now()
	}
}

// ForceEndAll discards every active session without validation and
// returns how many were dropped.
func (t *Tracker) ForceEndAll() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.active)
	for _, s := range t.active {
		metrics.SessionsEnded.WithLabelValues(s.Platform.Name, "discarded").Inc()
	}
	t.active = make(map[int]*storage.Session)
	metrics.ActiveSessions.Set(0)
	t.logger.Info().Int("sessions", n).Msg("Force-ended all active sessions")
	return n
}

// UpdatePrivacy merges a partial settings update and persists.
func (t *Tracker) UpdatePrivacy(ctx context.Context, patch PrivacyPatch) (storage.PrivacySettings, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	settings := &t.snapshot.PrivacySettings
	if patch.WorkHoursOnly != nil {
		settings.WorkHoursOnly = *patch.WorkHoursOnly
	}
	if patch.WorkHours != nil {
		settings.WorkHours = *patch.WorkHours
	}
	if patch.IndividualOptOut != nil {
		settings.IndividualOptOut = *patch.IndividualOptOut
	}
	storage.Repair(t.snapshot)

	if err := t.saveLocked(ctx); err != nil {
		return *settings, err
	}
	t.logger.Info().
		Bool("work_hours_only", settings.WorkHoursOnly).
		Int("start_hour", settings.WorkHours.StartHour).
		Int("end_hour", settings.WorkHours.EndHour).
		Msg("Privacy settings updated")
	return *settings, nil
}

// ClearData drops all usage data, active sessions included.
func (t *Tracker) ClearData(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.active = make(map[int]*storage.Session)
	t.snapshot = storage.NewSnapshot()
	metrics.ActiveSessions.Set(0)

	if err := t.usageStore.Clear(ctx); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	if err := t.saveLocked(ctx); err != nil {
		return err
	}
	t.logger.Info().Msg("All usage data cleared")
	return nil
}

// Sweep closes stale sessions, repairs the snapshot, refreshes the
// backup copy and persists while sessions are active.
func (t *Tracker) Sweep(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clk.Now()
	for tabID, s := range t.active {
		if now.Sub(s.LastActivity) > t.opts.InactivityTimeout {
			t.logger.Debug().
				Str("session_id", s.ID).
				Dur("inactive", now.Sub(s.LastActivity)).
				Msg("Ending inactive session")
			t.closeSessionLocked(ctx, tabID, "inactivity")
		}
	}

	storage.Repair(t.snapshot)

	if now.Sub(t.lastBackup) >= t.opts.BackupInterval {
		if err := t.usageStore.Backup(ctx, now); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				t.logger.Warn().Err(err).Msg("Periodic backup failed")
			}
			metrics.BackupsTotal.WithLabelValues("error").Inc()
		} else {
			t.lastBackup = now
			metrics.BackupsTotal.WithLabelValues("ok").Inc()
		}
	}

	if len(t.active) > 0 {
		if err := t.saveLocked(ctx); err != nil {
			t.logger.Error().Err(err).Msg("Periodic save failed")
		}
	}
}

// Shutdown closes every active session and persists the result.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for tabID := range t.active {
		t.closeSessionLocked(ctx, tabID, "shutdown")
	}
	return t.saveLocked(ctx)
}

// closeSessionLocked ends a session, folding it into the aggregates
// when it passes validation. The caller holds t.mu.
func (t *Tracker) closeSessionLocked(ctx context.Context, tabID int, reason string) {
	s, ok := t.active[tabID]
	if !ok {
		return
	}
	delete(t.active, tabID)
	metrics.ActiveSessions.Set(float64(len(t.active)))

	now := t.clk.Now()
	s.Active = false
	s.EndTime = now
	s.TimeSpentMS = now.Sub(s.StartTime).Milliseconds()

	if err := t.opts.validateSession(s); err != nil {
		t.logger.Debug().
			Str("session_id", s.ID).
			Str("platform", s.Platform.Name).
			Str("reason", reason).
			Err(err).
			Msg("Session discarded")
		metrics.SessionsEnded.WithLabelValues(s.Platform.Name, "invalid").Inc()
		return
	}

	t.snapshot.Sessions = append(t.snapshot.Sessions, *s)
	t.foldLocked(s)
	metrics.SessionsEnded.WithLabelValues(s.Platform.Name, "valid").Inc()
	metrics.SessionDuration.WithLabelValues(s.Platform.Name).
		Observe(float64(s.TimeSpentMS) / 1000)

	if err := t.saveLocked(ctx); err != nil {
		t.logger.Error().Err(err).Str("session_id", s.ID).Msg("Failed to persist closed session")
	}
	t.logger.Info().
		Str("session_id", s.ID).
		Str("platform", s.Platform.Name).
		Str("reason", reason).
		Int64("time_spent_ms", s.TimeSpentMS).
		Int("interactions", s.Interactions).
		Msg("Session ended")
}

// foldLocked adds a validated session to the platform and daily
// aggregates. The caller holds t.mu.
func (t *Tracker) foldLocked(s *storage.Session) {
	name := s.Platform.Name
	stats, ok := t.snapshot.PlatformUsage[name]
	if !ok {
		stats = &storage.PlatformStats{}
		t.snapshot.PlatformUsage[name] = stats
	}
	stats.TotalSessions++
	stats.TotalTimeMS += s.TimeSpentMS
	stats.TotalInteractions += s.Interactions
	stats.MessagesSent += s.MessagesSent
	stats.MessagesReceived += s.MessagesReceived
	stats.LastUsed = t.clk.Now()

	date := s.StartTime.Format("2006-01-02")
	daily, ok := t.snapshot.DailyStats[date]
	if !ok {
		daily = &storage.DailyStats{PlatformsUsed: storage.NewStringSet()}
		t.snapshot.DailyStats[date] = daily
	}
	daily.TotalSessions++
	daily.TotalTimeMS += s.TimeSpentMS
	daily.MessagesSent += s.MessagesSent
	daily.MessagesReceived += s.MessagesReceived
	daily.PlatformsUsed.Add(name)
}

// saveLocked persists the snapshot. The caller holds t.mu.
func (t *Tracker) saveLocked(ctx context.Context) error {
	if err := t.usageStore.Save(ctx, t.snapshot); err != nil {
		metrics.SnapshotSaves.WithLabelValues("error").Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	metrics.SnapshotSaves.WithLabelValues("ok").Inc()
	return nil
}

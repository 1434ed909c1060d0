package tracker

import (
	"github.com/EdwardH92/CliffDive/internal/storage"
)

// PrivacyPatch is a partial privacy settings update; nil fields keep
// their current value.
type PrivacyPatch struct {
	WorkHoursOnly    *bool              `json:"workHoursOnly,omitempty"`
	WorkHours        *storage.WorkHours `json:"workHours,omitempty"`
	IndividualOptOut *bool              `json:"individualOptOut,omitempty"`
}

// Report is the analytics view served to the dashboard. It is a deep
// copy; callers may marshal it without holding tracker state.
type Report struct {
	PlatformUsage   map[string]*storage.PlatformStats `json:"platformUsage"`
	DailyStats      map[string]*storage.DailyStats    `json:"dailyStats"`
	Sessions        []storage.Session                 `json:"sessions"`
	ActiveSessions  []storage.Session                 `json:"activeSessions"`
	PrivacySettings storage.PrivacySettings           `json:"privacySettings"`
}

// Analytics builds the current analytics report.
func (t *Tracker) Analytics() Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := Report{
		PlatformUsage:   make(map[string]*storage.PlatformStats, len(t.snapshot.PlatformUsage)),
		DailyStats:      make(map[string]*storage.DailyStats, len(t.snapshot.DailyStats)),
		Sessions:        make([]storage.Session, len(t.snapshot.Sessions)),
		ActiveSessions:  make([]storage.Session, 0, len(t.active)),
		PrivacySettings: t.snapshot.PrivacySettings,
	}

	copy(report.Sessions, t.snapshot.Sessions)
	for name, stats := range t.snapshot.PlatformUsage {
		c := *stats
		report.PlatformUsage[name] = &c
	}
	for date, daily := range t.snapshot.DailyStats {
		c := *daily
		c.PlatformsUsed = storage.NewStringSet(daily.PlatformsUsed.Members()...)
		report.DailyStats[date] = &c
	}
	for _, s := range t.active {
		report.ActiveSessions = append(report.ActiveSessions, *s)
	}

	return report
}

package storage

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/EdwardH92/CliffDive/internal/platform"
)

// StringSet is a set of strings persisted as a sorted JSON array.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given members.
func NewStringSet(members ...string) StringSet {
	s := make(StringSet, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Add inserts a member into the set.
func (s StringSet) Add(member string) {
	s[member] = struct{}{}
}

// Has reports set membership.
func (s StringSet) Has(member string) bool {
	_, ok := s[member]
	return ok
}

// Members returns the set contents in sorted order.
func (s StringSet) Members() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON implements json.Marshaler using the array form.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

// UnmarshalJSON implements json.Unmarshaler from the array form.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	out := make(StringSet, len(members))
	for _, m := range members {
		out[m] = struct{}{}
	}
	*s = out
	return nil
}

// Session represents one continuous visit to a tracked platform in a
// single browser tab.
type Session struct {
	ID               string         `json:"id"`
	TabID            int            `json:"tabId"`
	Platform         platform.Match `json:"platform"`
	StartTime        time.Time      `json:"startTime"`
	LastActivity     time.Time      `json:"lastActivity"`
	EndTime          time.Time      `json:"endTime,omitzero"`
	TimeSpentMS      int64          `json:"timeSpentMs"`
	Interactions     int            `json:"interactions"`
	MessagesSent     int            `json:"messagesSent"`
	MessagesReceived int            `json:"messagesReceived"`
	Active           bool           `json:"isActive"`
}

// PlatformStats aggregates validated sessions for one platform.
type PlatformStats struct {
	TotalSessions     int       `json:"totalSessions"`
	TotalTimeMS       int64     `json:"totalTimeMs"`
	TotalInteractions int       `json:"totalInteractions"`
	MessagesSent      int       `json:"messagesSent"`
	MessagesReceived  int       `json:"messagesReceived"`
	LastUsed          time.Time `json:"lastUsed,omitzero"`
}

// DailyStats aggregates validated sessions for one local calendar date.
type DailyStats struct {
	TotalSessions    int       `json:"totalSessions"`
	TotalTimeMS      int64     `json:"totalTimeMs"`
	MessagesSent     int       `json:"messagesSent"`
	MessagesReceived int       `json:"messagesReceived"`
	PlatformsUsed    StringSet `json:"platformsUsed"`
}

// WorkHours is an inclusive hour-of-day range.
type WorkHours struct {
	StartHour int `json:"start"`
	EndHour   int `json:"end"`
}

// Contains reports whether the given hour falls inside the range.
// Both bounds are inclusive.
func (w WorkHours) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// PrivacySettings gates session creation and is user editable.
type PrivacySettings struct {
	WorkHoursOnly    bool      `json:"workHoursOnly"`
	WorkHours        WorkHours `json:"workHours"`
	IndividualOptOut bool      `json:"individualOptOut"`
}

// DefaultPrivacySettings returns the out-of-the-box settings.
func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		WorkHoursOnly:    false,
		WorkHours:        WorkHours{StartHour: 9, EndHour: 17},
		IndividualOptOut: false,
	}
}

// Snapshot is the aggregate root persisted as the usage blob.
// Sessions is append-only, newest last.
type Snapshot struct {
	Sessions        []Session                 `json:"sessions"`
	DailyStats      map[string]*DailyStats    `json:"dailyStats"`
	PlatformUsage   map[string]*PlatformStats `json:"platformUsage"`
	PrivacySettings PrivacySettings           `json:"privacySettings"`
}

// NewSnapshot returns an empty snapshot with defaults applied.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Sessions:        []Session{},
		DailyStats:      make(map[string]*DailyStats),
		PlatformUsage:   make(map[string]*PlatformStats),
		PrivacySettings: DefaultPrivacySettings(),
	}
}

// BackupRecord is the timestamped shadow copy of the snapshot.
type BackupRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Data      *Snapshot `json:"usageData"`
}

// Repair coerces a snapshot into a structurally sound state. Missing
// or malformed sub-fields are replaced with defaults; valid values are
// preserved.
func Repair(s *Snapshot) {
	if s.Sessions == nil {
		s.Sessions = []Session{}
	}
	if s.DailyStats == nil {
		s.DailyStats = make(map[string]*DailyStats)
	}
	if s.PlatformUsage == nil {
		s.PlatformUsage = make(map[string]*PlatformStats)
	}

	for date, daily := range s.DailyStats {
		if daily == nil {
			s.DailyStats[date] = &DailyStats{PlatformsUsed: NewStringSet()}
			continue
		}
		if daily.PlatformsUsed == nil {
			daily.PlatformsUsed = NewStringSet()
		}
	}
	for name, stats := range s.PlatformUsage {
		if stats == nil {
			s.PlatformUsage[name] = &PlatformStats{}
		}
	}

	hours := &s.PrivacySettings.WorkHours
	if hours.StartHour < 0 || hours.StartHour > 23 ||
		hours.EndHour < 0 || hours.EndHour > 23 {
		*hours = DefaultPrivacySettings().WorkHours
	}
}

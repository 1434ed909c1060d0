package storage

import (
	"encoding/json"
	"testing"
)

func TestStringSetJSONRoundTrip(t *testing.T) {
	s := NewStringSet("ChatGPT", "Claude", "Gemini")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["ChatGPT","Claude","Gemini"]` {
		t.Errorf("expected sorted array, got %s", data)
	}

	var out StringSet
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 3 || !out.Has("Claude") {
		t.Errorf("round trip lost members: %v", out)
	}
}

func TestWorkHoursContains(t *testing.T) {
	w := WorkHours{StartHour: 9, EndHour: 17}

	tests := []struct {
		hour int
		want bool
	}{
		{8, false},
		{9, true},
		{12, true},
		{17, true}, // end bound is inclusive
		{18, false},
	}
	for _, tt := range tests {
		if got := w.Contains(tt.hour); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestRepairFillsMissingStructure(t *testing.T) {
	snap := &Snapshot{
		DailyStats: map[string]*DailyStats{
			"2025-06-01": {TotalSessions: 2},
			"2025-06-02": nil,
		},
		PlatformUsage: map[string]*PlatformStats{
			"ChatGPT": nil,
		},
		PrivacySettings: PrivacySettings{
			WorkHours: WorkHours{StartHour: -1, EndHour: 99},
		},
	}

	Repair(snap)

	if snap.Sessions == nil {
		t.Error("expected sessions slice to be initialized")
	}
	if snap.DailyStats["2025-06-01"].PlatformsUsed == nil {
		t.Error("expected platformsUsed set to be initialized")
	}
	if snap.DailyStats["2025-06-01"].TotalSessions != 2 {
		t.Error("repair should preserve existing values")
	}
	if snap.DailyStats["2025-06-02"] == nil {
		t.Error("expected nil daily entry to be replaced")
	}
	if snap.PlatformUsage["ChatGPT"] == nil {
		t.Error("expected nil platform entry to be replaced")
	}
	if got := snap.PrivacySettings.WorkHours; got.StartHour != 9 || got.EndHour != 17 {
		t.Errorf("expected work hours reset to defaults, got %+v", got)
	}
}

func TestRepairPreservesValidWorkHours(t *testing.T) {
	snap := NewSnapshot()
	snap.PrivacySettings.WorkHours = WorkHours{StartHour: 7, EndHour: 22}

	Repair(snap)

	if got := snap.PrivacySettings.WorkHours; got.StartHour != 7 || got.EndHour != 22 {
		t.Errorf("valid work hours were modified: %+v", got)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	snap := NewSnapshot()
	snap.DailyStats["2025-06-01"] = &DailyStats{
		TotalSessions: 1,
		TotalTimeMS:   60000,
		PlatformsUsed: NewStringSet("Claude"),
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	daily, ok := out.DailyStats["2025-06-01"]
	if !ok {
		t.Fatal("daily entry missing after round trip")
	}
	if !daily.PlatformsUsed.Has("Claude") {
		t.Error("platform set lost after round trip")
	}
	if out.PrivacySettings.WorkHours.StartHour != 9 {
		t.Errorf("privacy settings lost: %+v", out.PrivacySettings)
	}
}

package tracker

import (
	"fmt"
	"time"

	"github.com/EdwardH92/CliffDive/internal/storage"
)

// validateSession checks a closed session against the anti-gaming
// rules: plausible duration, at least one interaction, and a mean
// activity gap a human could produce.
func (o Options) validateSession(s *storage.Session) error {
	spent := time.Duration(s.TimeSpentMS) * time.Millisecond

	if spent < o.MinSessionDuration {
		return fmt.Errorf("duration too short: %v < %v", spent, o.MinSessionDuration)
	}
	if spent > o.MaxSessionDuration {
		return fmt.Errorf("duration too long: %v > %v", spent, o.MaxSessionDuration)
	}
	if s.Interactions < 1 {
		return fmt.Errorf("no interactions recorded")
	}

	if s.Interactions > 1 {
		gap := spent / time.Duration(s.Interactions+1)
		if gap < o.MinInteractionGap || gap > o.MaxInteractionGap {
			return fmt.Errorf("unrealistic activity gap: %v", gap)
		}
	}

	return nil
}

package catalog

import "time"

// EffectiveStatus computes the lifecycle status as of now, combining the
// declared status with the deprecated_at/retired_at thresholds. A declared
// status never regresses: a model marked retired stays retired even if its
// dates say otherwise.
func (m *Model) EffectiveStatus(now time.Time) string {
	declared := ""
	if m.Lifecycle != nil {
		switch m.Lifecycle.Status {
		case StatusActive, StatusDeprecated, StatusRetired:
			declared = m.Lifecycle.Status
		}
	}

	if m.Lifecycle != nil && dateReached(m.Lifecycle.RetiredAt, now) {
		return StatusRetired
	}
	if declared == StatusRetired || (declared == "" && m.Retired) {
		return StatusRetired
	}
	if m.Lifecycle != nil && dateReached(m.Lifecycle.DeprecatedAt, now) {
		return StatusDeprecated
	}
	if declared == StatusDeprecated || (declared == "" && m.Deprecated) {
		return StatusDeprecated
	}
	return StatusActive
}

func dateReached(s string, now time.Time) bool {
	if s == "" {
		return false
	}
	t, err := ParseDate(s)
	if err != nil {
		return false
	}
	return !now.Before(t)
}

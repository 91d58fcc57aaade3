// Package period maps instants onto quota windows. All boundaries are
// computed in UTC so a user's window never depends on their time zone.
package period

import (
	"fmt"
	"time"
)

// Kind identifies the reset cadence of a quota window.
type Kind string

const (
	Daily    Kind = "daily"
	Weekly   Kind = "weekly"
	Monthly  Kind = "monthly"
	Lifetime Kind = "lifetime"
)

// Parse converts a configuration string into a Kind.
func Parse(s string) (Kind, error) {
	switch Kind(s) {
	case Daily, Weekly, Monthly, Lifetime:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown period kind: %q", s)
}

// WindowID returns the identifier of the window containing t. The same
// instant always yields the same identifier for a given kind.
func WindowID(kind Kind, t time.Time) string {
	t = t.UTC()
	switch kind {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Monthly:
		return t.Format("2006-01")
	default:
		return "lifetime"
	}
}

// ResetTime returns the instant at which the window containing t closes.
// Lifetime windows never reset; the zero time is returned for them.
func ResetTime(kind Kind, t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch kind {
	case Daily:
		return midnight.AddDate(0, 0, 1)
	case Weekly:
		// ISO weeks start on Monday.
		offset := (8 - int(t.Weekday())) % 7
		if offset == 0 {
			offset = 7
		}
		return midnight.AddDate(0, 0, offset)
	case Monthly:
		// Anchoring at day 1 before adding a month avoids date overflow
		// (e.g. Jan 31 + 1 month normalizing into March).
		firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return firstOfMonth.AddDate(0, 1, 0)
	default:
		return time.Time{}
	}
}

package catalog

import (
	"fmt"
	"time"
)

// Accepted input date layouts. Output is always ISO-8601: date-only values
// render as 2006-01-02, values with a time component as RFC 3339.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"January 2, 2006",
}

// ParseDate parses a normalized or raw date string.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// NormalizeDate rewrites a date string to ISO-8601.
func NormalizeDate(s string) (string, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(time.RFC3339), nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

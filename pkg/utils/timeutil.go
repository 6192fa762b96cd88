// Package utils provides small shared helpers with no project dependencies.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// instantLayouts are the accepted wire formats for instants, tried in order.
// Promotional items authored by older frontend builds stored local-style
// timestamps without a zone; those are interpreted as UTC.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseInstant parses a timestamp in any accepted wire format.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatInstant renders an instant in the canonical wire format (RFC 3339 UTC).
func FormatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

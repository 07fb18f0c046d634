// Package dates parses the date literals accepted by queries and outline
// files, and renders the index's ISO projections.
//
// Index timestamps are integer milliseconds since the Unix epoch, in UTC.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ISOLayout is the layout of the index's string projections. It sorts
// lexicographically in time order, so partial prefixes such as "2024-03"
// compare sensibly against it.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// datetimeLayouts are tried in order. Forms without a zone read as UTC.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate reports whether s is a real YYYY-MM-DD calendar date.
func IsValidDate(s string) bool {
	_, err := ParseDate(s)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if dateShape.MatchString(s) {
		if t, err := time.Parse(dateLayout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %q", s)
}

func IsValidDatetime(s string) bool {
	_, err := ParseDatetime(s)
	return err == nil
}

// ParseDatetime accepts RFC 3339 (fractional seconds optional) and the
// zoneless YYYY-MM-DDTHH:MM and YYYY-MM-DDTHH:MM:SS forms.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime: %q", s)
}

// Parse accepts either a calendar date or a datetime.
func Parse(s string) (time.Time, error) {
	if t, err := ParseDate(s); err == nil {
		return t, nil
	}
	if t, err := ParseDatetime(s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date or datetime: %q", strings.TrimSpace(s))
}

// ParseMillis parses a date or datetime into epoch milliseconds.
func ParseMillis(s string) (int64, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// LooksLikeDate reports whether s starts with something shaped like a date,
// valid or not ("2024-13-45" does). The query parser uses it to tell a bad
// date from a plain string.
func LooksLikeDate(s string) bool {
	return len(s) >= len(dateLayout) && dateShape.MatchString(s[:len(dateLayout)])
}

// FormatISO renders milliseconds as an ISOLayout string in UTC.
func FormatISO(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(ISOLayout)
}

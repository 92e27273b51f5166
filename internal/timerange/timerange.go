// Package timerange provides the UTC time interval used by search
// criteria, URL pattern expansion, and result records.
//
// Archive timestamps arrive in a handful of loosely standardized forms
// (dashed and slashed dates, with or without a clock); parsing is
// centralized here so every layer accepts the same inputs.
package timerange

import (
	"fmt"
	"strings"
	"time"
)

// timeFormats are tried in order by ParseTime.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"2006-1-2",
}

// ParseTime parses a timestamp in one of the accepted formats. Naive
// inputs are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid time: empty")
	}
	for _, format := range timeFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time: %q", s)
}

// ParseTimeArg parses a CLI time argument: an absolute timestamp or one
// of the relative keywords "now", "today", "yesterday".
func ParseTimeArg(arg string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "now":
		return now.UTC(), nil
	case "today":
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case "yesterday":
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	default:
		return ParseTime(arg)
	}
}

// Range is an immutable closed interval [Start, End] in UTC.
type Range struct {
	start time.Time
	end   time.Time
}

// New builds a Range from two instants, swapping them if given in
// reverse order.
func New(start, end time.Time) Range {
	start, end = start.UTC(), end.UTC()
	if end.Before(start) {
		start, end = end, start
	}
	return Range{start: start, end: end}
}

// Parse builds a Range from two timestamp strings.
func Parse(start, end string) (Range, error) {
	s, err := ParseTime(start)
	if err != nil {
		return Range{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseTime(end)
	if err != nil {
		return Range{}, fmt.Errorf("end: %w", err)
	}
	return New(s, e), nil
}

// Start returns the earlier bound.
func (r Range) Start() time.Time { return r.start }

// End returns the later bound.
func (r Range) End() time.Time { return r.end }

// Duration returns End minus Start.
func (r Range) Duration() time.Duration { return r.end.Sub(r.start) }

// IsZero reports whether the range is the zero value.
func (r Range) IsZero() bool { return r.start.IsZero() && r.end.IsZero() }

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.start) && !t.After(r.end)
}

// Overlaps reports whether the two ranges share at least one instant.
func (r Range) Overlaps(other Range) bool {
	return !r.end.Before(other.start) && !other.end.Before(r.start)
}

// Equal reports whether both bounds match.
func (r Range) Equal(other Range) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

// Split divides the range into n contiguous subranges of equal duration.
// n below one returns the range itself.
func (r Range) Split(n int) []Range {
	if n <= 1 {
		return []Range{r}
	}
	step := r.Duration() / time.Duration(n)
	out := make([]Range, 0, n)
	cur := r.start
	for i := 0; i < n; i++ {
		next := cur.Add(step)
		if i == n-1 {
			next = r.end
		}
		out = append(out, Range{start: cur, end: next})
		cur = next
	}
	return out
}

// Dates returns the UTC midnight of every calendar day the range touches,
// in order. A range within a single day yields that one day.
func (r Range) Dates() []time.Time {
	y, m, d := r.start.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for !day.After(r.end) {
		out = append(out, day)
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// String renders the range as "start ~ end" for display and query text.
func (r Range) String() string {
	const layout = "2006-01-02 15:04:05"
	return r.start.Format(layout) + " ~ " + r.end.Format(layout)
}

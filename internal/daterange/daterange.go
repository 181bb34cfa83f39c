// Package daterange parses the calendar-day filters accepted by the
// report endpoints.
package daterange

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// DefaultDays is the trailing range applied when no dates are given.
const DefaultDays = 7

// InvalidRangeError indicates an unparseable or inverted date filter.
type InvalidRangeError struct {
	Value string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: %s", e.Value)
}

func NewInvalidRangeError(value string) *InvalidRangeError {
	return &InvalidRangeError{Value: value}
}

// Range is a half-open UTC window [From, To) derived from inclusive
// calendar days.
type Range struct {
	From time.Time
	To   time.Time
}

// Parse builds a Range from optional ISO YYYY-MM-DD start and end
// dates. The end date is inclusive, so the window extends to the start
// of the following day. Missing start defaults to DefaultDays before
// the end; missing end defaults to today.
func Parse(start, end string, now time.Time) (Range, error) {
	now = now.UTC()
	endDay := now.Truncate(24 * time.Hour)
	if end != "" {
		parsed, err := time.ParseInLocation(dayLayout, end, time.UTC)
		if err != nil {
			return Range{}, NewInvalidRangeError(end)
		}
		endDay = parsed
	}

	startDay := endDay.AddDate(0, 0, -(DefaultDays - 1))
	if start != "" {
		parsed, err := time.ParseInLocation(dayLayout, start, time.UTC)
		if err != nil {
			return Range{}, NewInvalidRangeError(start)
		}
		startDay = parsed
	}

	if startDay.After(endDay) {
		return Range{}, NewInvalidRangeError(fmt.Sprintf("%s..%s", start, end))
	}

	return Range{From: startDay, To: endDay.AddDate(0, 0, 1)}, nil
}

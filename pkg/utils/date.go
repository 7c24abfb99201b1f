package utils

import (
	"fmt"
	"math"
	"time"

	"ai-hedge-fund/pkg/common"
)

// TimeNow is swapped in tests.
var TimeNow = func() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC date at midnight.
func Today() time.Time {
	return StartOfDay(TimeNow())
}

func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(common.DATE_LAYOUT, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD: %w", s, common.ErrInvalidInput)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(common.DATE_LAYOUT)
}

// DaysBetween counts whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Floor(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24))
}

package domain

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// PeriodKey returns the calendar-month key ("2024-12") the leaderboard accumulates under.
func PeriodKey(t time.Time) string {
	return t.Format(periodLayout)
}

// ParsePeriod validates a period key and returns its canonical form.
func ParsePeriod(raw string) (string, error) {
	t, err := time.Parse(periodLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return PeriodKey(t), nil
}

// MonthPeriod builds the key for a year and 1-based month.
func MonthPeriod(year, month int) (string, error) {
	if month < 1 || month > 12 || year < 1 {
		return "", fmt.Errorf("%w: %d-%d", ErrInvalidPeriod, year, month)
	}
	return fmt.Sprintf("%04d-%02d", year, month), nil
}

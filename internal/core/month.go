package core

import (
	"time"
)

// Month identifies a calendar year-month.
type Month struct {
	Year  int
	Month int // 1-12
}

// CurrentMonth returns the month of the local current date.
func CurrentMonth() Month {
	now := time.Now()
	return Month{Year: now.Year(), Month: int(now.Month())}
}

// MonthOf returns the month a date falls in.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

// ParseMonth parses a "2006-01" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, ErrInvalidDate
	}
	return MonthOf(t), nil
}

// String formats the month as "2006-01", the prefix of ISO-8601 dates
// stored in the transactions table.
func (m Month) String() string {
	return time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// IsZero reports whether the month is unset.
func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Package temporal derives calendar and cyclical features from a trip timestamp.
package temporal

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Layout is the accepted request timestamp format (local time, minute precision).
const Layout = "2006-01-02T15:04"

// ErrInvalidTimestamp indicates a timestamp that does not match Layout.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// WeekdayNames are indexed by Monday-based weekday index.
var WeekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// rushHours are the morning and evening commute windows.
var rushHours = map[int]bool{7: true, 8: true, 9: true, 16: true, 17: true, 18: true, 19: true}

// Features holds everything derived from a single timestamp.
type Features struct {
	Hour                 int
	Month                int
	WeekdayIndex         int // 0=Monday..6=Sunday
	WeekdayIndexOneBased int
	WeekdayName          string
	IsWeekend            bool
	IsRushHour           bool
	HourSin              float64
	HourCos              float64
	MonthSin             float64
	MonthCos             float64
}

// Parse parses a request timestamp in Layout.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match YYYY-MM-DDTHH:MM", ErrInvalidTimestamp, s)
	}
	return t, nil
}

// Extract derives the temporal features for t. The wall clock of t is used as is.
func Extract(t time.Time) Features {
	hour := t.Hour()
	month := int(t.Month())
	weekday := MondayIndex(t.Weekday())

	return Features{
		Hour:                 hour,
		Month:                month,
		WeekdayIndex:         weekday,
		WeekdayIndexOneBased: weekday + 1,
		WeekdayName:          WeekdayNames[weekday],
		IsWeekend:            weekday >= 5,
		IsRushHour:           IsRushHour(hour),
		HourSin:              math.Sin(2 * math.Pi * float64(hour) / 24),
		HourCos:              math.Cos(2 * math.Pi * float64(hour) / 24),
		MonthSin:             math.Sin(2 * math.Pi * float64(month) / 12),
		MonthCos:             math.Cos(2 * math.Pi * float64(month) / 12),
	}
}

// MondayIndex converts a time.Weekday (Sunday=0) into a Monday-based index.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// IsRushHour reports whether hour falls in a commute window.
func IsRushHour(hour int) bool {
	return rushHours[hour]
}

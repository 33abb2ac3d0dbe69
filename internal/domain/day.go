package domain

import "time"

// DayFormat is the local calendar-day layout used for all day and
// week-start strings.
const DayFormat = "2006-01-02"

// ParseDay parses a local calendar-day string.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(DayFormat, day, time.Local)
}

// FormatDay formats t as a local calendar-day string.
func FormatDay(t time.Time) string {
	return t.In(time.Local).Format(DayFormat)
}

// AddDays returns the day string n calendar days after day.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return FormatDay(t.AddDate(0, 0, n)), nil
}

package domain

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision, encoded as "HH:MM".
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// ClockOf returns the time of day of t in its own location.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

// MarshalText implements the text marshaller method.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements the text unmarshaller method.
func (c *ClockTime) UnmarshalText(text []byte) error {
	v, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

var weekdays = map[Weekday]time.Weekday{
	WeekdayMon: time.Monday,
	WeekdayTue: time.Tuesday,
	WeekdayWed: time.Wednesday,
	WeekdayThu: time.Thursday,
	WeekdayFri: time.Friday,
	WeekdaySat: time.Saturday,
	WeekdaySun: time.Sunday,
}

// Std converts to time.Weekday.
func (x Weekday) Std() time.Weekday {
	return weekdays[x]
}

// Next is the following calendar day.
func (x Weekday) Next() Weekday {
	return WeekdayOf((x.Std() + 1) % 7)
}

// WeekdayOf converts from time.Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	for k, v := range weekdays {
		if v == d {
			return k
		}
	}
	return ""
}

package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

var BrisbaneTZ = time.FixedZone("UTC+10", 10*60*60)

// LoadLocation resolves a display timezone, falling back to Brisbane time
// when the zone database is unavailable.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return BrisbaneTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return BrisbaneTZ
	}
	return loc
}

func SameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func ParseISOTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty time string")
	}

	// Try standard RFC3339 format (ISO 8601)
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return &t, nil
	}

	t, err = time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return &t, nil
	}

	// epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		tt := time.UnixMilli(ms).UTC()
		return &tt, nil
	}

	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if tt, e := time.ParseInLocation(layout, s, time.UTC); e == nil {
			return &tt, nil
		}
	}

	return nil, fmt.Errorf("failed to parse time: %v", s)
}

// ParseDateTimeIn combines a date and a time-of-day string in loc.
func ParseDateTimeIn(date, clock string, loc *time.Location) (time.Time, error) {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	for _, layout := range []string{TimeLayout, "15:04"} {
		if t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date time: %s %s", date, clock)
}

// Package timeutil keeps all instants UTC in storage and converts to the
// reporting zone only at the display/aggregation edge.
package timeutil

import (
	"fmt"
	"time"
)

const (
	// DisplayFormat is used everywhere a timestamp is rendered for humans.
	DisplayFormat = "2006-01-02 15:04:05"
	// DateFormat is used for day-granularity buckets and date query params.
	DateFormat = "2006-01-02"
)

// FromUnix converts stored unix seconds to a UTC-aware instant.
func FromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// ToUnix canonicalizes any instant to UTC unix seconds before persistence.
func ToUnix(t time.Time) int64 {
	return t.UTC().Unix()
}

// LoadZone resolves the fixed reporting zone, e.g. Europe/Athens.
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown reporting timezone %q: %w", name, err)
	}
	return loc, nil
}

// DayBucket truncates t to midnight of its day in loc.
func DayBucket(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WeekBucket truncates t to the Monday of its week in loc.
func WeekBucket(t time.Time, loc *time.Location) time.Time {
	day := DayBucket(t, loc)
	// Weekday() counts from Sunday; shift so Monday is 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthBucket truncates t to the first of its month in loc.
func MonthBucket(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

package repository

import (
	"fmt"
	"time"
)

// CacheThresholdDays is the recency threshold for the persistent cache.
// Prices and portfolio values within this many days of today are still
// subject to revision and are never persisted.
const CacheThresholdDays = 2

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse("2006-01-02", str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date: %w", err)
		}
	}
	return returnTime.UTC(), nil
}

// CacheCutoff returns the first date too recent to cache: dates strictly
// before the cutoff are cacheable.
func CacheCutoff(now time.Time) time.Time {
	day := now.UTC().Truncate(24 * time.Hour)
	return day.AddDate(0, 0, -CacheThresholdDays)
}

// IsCacheable reports whether a date is old enough to persist.
func IsCacheable(date, now time.Time) bool {
	return date.UTC().Truncate(24 * time.Hour).Before(CacheCutoff(now))
}

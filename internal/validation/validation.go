// Package validation provides request-level parameter validation for
// the HTTP layer.
package validation

import (
	"fmt"
	"time"

	"github.com/dverbeek/portfolio-tracker/internal/apperrors"
)

// Intraday intervals accepted by the same-day endpoint. Yahoo rejects
// anything else.
var intradayIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true, "60m": true, "90m": true,
}

// Multi-day queries need coarser intervals or the provider truncates
// the range.
var multidayIntervals = map[string]bool{
	"15m": true, "30m": true, "60m": true,
}

const (
	minDays = 1
	maxDays = 7
)

// IntradayInterval validates an interval for the same-day endpoint,
// defaulting to 5m when empty.
func IntradayInterval(interval string) (string, error) {
	if interval == "" {
		return "5m", nil
	}
	if !intradayIntervals[interval] {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidInterval, interval)
	}
	return interval, nil
}

// MultidayInterval validates an interval for the multi-day endpoint,
// defaulting to 15m when empty.
func MultidayInterval(interval string) (string, error) {
	if interval == "" {
		return "15m", nil
	}
	if !multidayIntervals[interval] {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidInterval, interval)
	}
	return interval, nil
}

// Days validates a multi-day range, defaulting to 3 when zero.
func Days(days int) (int, error) {
	if days == 0 {
		return 3, nil
	}
	if days < minDays || days > maxDays {
		return 0, apperrors.ErrInvalidDays
	}
	return days, nil
}

// DateParam parses an optional date query parameter. An empty value
// yields the zero time, which callers treat as "use the default".
func DateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidDate, value)
		}
	}
	return t.UTC(), nil
}

// DateRange parses optional start and end parameters and checks their
// order when both are present.
func DateRange(startStr, endStr string) (start, end time.Time, err error) {
	if start, err = DateParam(startStr); err != nil {
		return
	}
	if end, err = DateParam(endStr); err != nil {
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err = apperrors.ErrInvalidDateRange
	}
	return
}

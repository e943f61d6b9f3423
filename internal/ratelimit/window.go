package ratelimit

import (
	"fmt"
	"time"
)

// Unit is the time unit of a sliding window.
type Unit string

const (
	UnitSecond  Unit = "second"
	UnitMinute  Unit = "minute"
	UnitHour    Unit = "hour"
	UnitDay     Unit = "day"
	UnitWeek    Unit = "week"
	UnitMonth   Unit = "month"
	UnitYear    Unit = "year"
	UnitDecade  Unit = "decade"
	UnitCentury Unit = "century"
)

// Cutoff returns the start of a trailing window of size window·unit ending
// at now. Calendar units use calendar arithmetic, not fixed durations.
func Cutoff(now time.Time, window int, unit Unit) (time.Time, error) {
	if window <= 0 {
		return time.Time{}, fmt.Errorf("window must be positive, got %d", window)
	}
	switch unit {
	case UnitSecond:
		return now.Add(-time.Duration(window) * time.Second), nil
	case UnitMinute:
		return now.Add(-time.Duration(window) * time.Minute), nil
	case UnitHour:
		return now.Add(-time.Duration(window) * time.Hour), nil
	case UnitDay:
		return now.AddDate(0, 0, -window), nil
	case UnitWeek:
		return now.AddDate(0, 0, -7*window), nil
	case UnitMonth:
		return now.AddDate(0, -window, 0), nil
	case UnitYear:
		return now.AddDate(-window, 0, 0), nil
	case UnitDecade:
		return now.AddDate(-10*window, 0, 0), nil
	case UnitCentury:
		return now.AddDate(-100*window, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unrecognized window unit %q", unit)
	}
}

// CountWithin counts timestamps strictly newer than cutoff. The input need
// not be sorted.
func CountWithin(stamps []time.Time, cutoff time.Time) int {
	count := 0
	for _, ts := range stamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}

// Trim keeps only the most recent keep entries, preserving append order.
// Entries are appended in increasing time order, so trimming drops from the
// front.
func Trim(stamps []time.Time, keep int) []time.Time {
	if keep < 0 {
		keep = 0
	}
	if len(stamps) <= keep {
		return stamps
	}
	trimmed := make([]time.Time, keep)
	copy(trimmed, stamps[len(stamps)-keep:])
	return trimmed
}

// Package timewindow decides whether a submitted start/end pair is an
// admissible work interval.
package timewindow

import (
	"time"

	"attendance-tracker/internal/domain"
)

// Verdict is the outcome of a window check.
type Verdict int

const (
	Valid Verdict = iota
	NonPositiveDuration
	ExceedsOneDay
	ExceedsTwelveHours
	StaleSubmission
)

const (
	MaxDuration = 12 * time.Hour
	// FreshnessWindow is how far back a submission's end may lie.
	FreshnessWindow = 3 * 24 * time.Hour
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case NonPositiveDuration:
		return "non-positive duration"
	case ExceedsOneDay:
		return "exceeds one day"
	case ExceedsTwelveHours:
		return "exceeds twelve hours"
	case StaleSubmission:
		return "stale submission"
	}
	return "unknown"
}

// Validate checks the interval alone. Durations are read off the wall clock.
func Validate(start, end time.Time) Verdict {
	d := domain.WallClockSpan(start, end)
	switch {
	case d <= 0:
		return NonPositiveDuration
	case d >= 24*time.Hour:
		return ExceedsOneDay
	case d > MaxDuration:
		return ExceedsTwelveHours
	}
	return Valid
}

// CheckFreshness rejects windows that ended three or more full days before now.
func CheckFreshness(end, now time.Time) Verdict {
	if domain.WallClockSpan(end, now) >= FreshnessWindow {
		return StaleSubmission
	}
	return Valid
}

// Check runs the interval rule, then the freshness rule.
func Check(start, end, now time.Time) Verdict {
	if v := Validate(start, end); v != Valid {
		return v
	}
	return CheckFreshness(end, now)
}

// Err converts a verdict into a validation error, nil for Valid.
func (v Verdict) Err() error {
	switch v {
	case Valid:
		return nil
	case StaleSubmission:
		return domain.NewValidationError("end", "records older than 3 days can no longer be submitted")
	default:
		return domain.NewValidationError("end", "invalid time range: must end after it starts and last at most 12 hours")
	}
}

package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"

	// UnboundedHours stands in for an unset hours bound.
	UnboundedHours = 999999
)

// DateRange covers whole days From..To inclusive.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Bounds returns the half-open instant range [From, To+1 day).
func (r DateRange) Bounds() (time.Time, time.Time) {
	return r.From, r.To.AddDate(0, 0, 1)
}

// ParseDateRange parses two YYYY-MM-DD strings in loc.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	f, err := ParseDate("from", from, loc)
	if err != nil {
		return DateRange{}, err
	}
	t, err := ParseDate("to", to, loc)
	if err != nil {
		return DateRange{}, err
	}
	if t.Before(f) {
		return DateRange{}, NewValidationError("to", "end date is before start date")
	}
	return DateRange{From: f, To: t}, nil
}

func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, NewValidationError(field, "expected a date formatted as YYYY-MM-DD")
	}
	return t, nil
}

func ParseDateTime(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, NewValidationError(field, "expected a time formatted as YYYY-MM-DDTHH:MM")
	}
	return t, nil
}

// SortDirection orders filtered results by hours.
type SortDirection int

const (
	SortAscending  SortDirection = 1
	SortDescending SortDirection = -1
)

// ParseSortDirection accepts 1/-1 as well as asc/desc. Empty means ascending.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "asc":
		return SortAscending, nil
	case "-1", "desc":
		return SortDescending, nil
	}
	return 0, NewValidationError("sort", "must be 1, -1, asc or desc")
}

// HoursRange is an inclusive bound on record hours.
type HoursRange struct {
	Min float64
	Max float64
}

// AnyHours matches every record.
var AnyHours = HoursRange{Min: -UnboundedHours, Max: UnboundedHours}

// ParseHoursRange treats empty bounds as unbounded.
func ParseHoursRange(lower, upper string) (HoursRange, error) {
	r := AnyHours
	if strings.TrimSpace(lower) != "" {
		v, err := decimal.NewFromString(strings.TrimSpace(lower))
		if err != nil {
			return HoursRange{}, NewValidationError("hours_min", "must be a number")
		}
		r.Min = v.InexactFloat64()
	}
	if strings.TrimSpace(upper) != "" {
		v, err := decimal.NewFromString(strings.TrimSpace(upper))
		if err != nil {
			return HoursRange{}, NewValidationError("hours_max", "must be a number")
		}
		r.Max = v.InexactFloat64()
	}
	return r, nil
}

// RecordFilter selects verified records for the filtered view.
type RecordFilter struct {
	Range DateRange
	// OwnerName matches the owner name snapshot stored on each record, so
	// records of deleted users stay reachable.
	OwnerName string
	Hours     HoursRange
	Sort      SortDirection
}

var hoursPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseHours parses a non-negative decimal hour count such as "3" or "1.5".
func ParseHours(field, text string) (float64, error) {
	text = strings.TrimSpace(text)
	if !hoursPattern.MatchString(text) {
		return 0, NewValidationError(field, "must be a non-negative decimal number")
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return 0, NewValidationError(field, "must be a non-negative decimal number")
	}
	return v.InexactFloat64(), nil
}

// RoundHours rounds to one decimal place, half away from zero.
func RoundHours(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

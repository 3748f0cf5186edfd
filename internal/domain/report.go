package domain

import "fmt"

// ReportMode selects one of the aggregate reports.
type ReportMode string

const (
	ReportOvertimeTotal     ReportMode = "overtime-total"
	ReportCompensationTotal ReportMode = "compensation-total"
	ReportWriteOffTotal     ReportMode = "writeoff-total"
	ReportBalance           ReportMode = "balance"
	ReportLate17            ReportMode = "late-17"
	ReportLate22            ReportMode = "late-22"
)

var ReportModes = []ReportMode{
	ReportOvertimeTotal,
	ReportCompensationTotal,
	ReportWriteOffTotal,
	ReportBalance,
	ReportLate17,
	ReportLate22,
}

func ParseReportMode(s string) (ReportMode, error) {
	for _, m := range ReportModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", NewValidationError("mode", fmt.Sprintf("unknown report %q", s))
}

// Unit is the column heading for the report value.
func (m ReportMode) Unit() string {
	if m == ReportLate17 || m == ReportLate22 {
		return "count"
	}
	return "hours"
}

// ReportRow is one owner's line in a report.
type ReportRow struct {
	OwnerID string
	Name    string
	Value   float64
}

// Report is an ordered aggregate over a date range.
type Report struct {
	Mode  ReportMode
	Range DateRange
	Rows  []ReportRow
}

// OwnerTotal is a raw per-owner sum as returned by the store.
type OwnerTotal struct {
	Owner OwnerRef
	Hours float64
}

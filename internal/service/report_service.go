package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"attendance-tracker/internal/access"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
)

// earlyStartHour is the time of day before which a same-day shift counts as early.
const earlyStartHour = 8

// ReportService computes aggregate statistics over verified records.
type ReportService interface {
	Run(ctx context.Context, caller domain.Caller, mode domain.ReportMode, dr domain.DateRange) (*domain.Report, error)
}

type reportService struct {
	records repository.RecordRepository
}

func NewReportService(records repository.RecordRepository) ReportService {
	return &reportService{records: records}
}

func (s *reportService) Run(ctx context.Context, caller domain.Caller, mode domain.ReportMode, dr domain.DateRange) (*domain.Report, error) {
	if err := access.Require(caller, access.ViewReports); err != nil {
		return nil, err
	}

	var (
		rows []domain.ReportRow
		err  error
	)
	switch mode {
	case domain.ReportOvertimeTotal:
		rows, err = s.totals(ctx, domain.KindOvertime, dr)
	case domain.ReportCompensationTotal:
		rows, err = s.totals(ctx, domain.KindCompensation, dr)
	case domain.ReportWriteOffTotal:
		rows, err = s.totals(ctx, domain.KindWriteOff, dr)
	case domain.ReportBalance:
		rows, err = s.balance(ctx, dr)
	case domain.ReportLate17:
		rows, err = s.lateFrequency(ctx, dr, 17)
	case domain.ReportLate22:
		rows, err = s.lateFrequency(ctx, dr, 22)
	default:
		return nil, domain.NewValidationError("mode", fmt.Sprintf("unknown report %q", mode))
	}
	if err != nil {
		return nil, err
	}
	return &domain.Report{Mode: mode, Range: dr, Rows: rows}, nil
}

// totals sums verified hours of one kind per owner.
func (s *reportService) totals(ctx context.Context, kind domain.Kind, dr domain.DateRange) ([]domain.ReportRow, error) {
	totals, err := s.records.SumHoursByOwner(ctx, kind, dr)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.ReportRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, domain.ReportRow{OwnerID: t.Owner.ID, Name: t.Owner.Name, Value: domain.RoundHours(t.Hours)})
	}
	sortRows(rows)
	return rows, nil
}

type balanceEntry struct {
	name  string
	hours decimal.Decimal
}

// balance is overtime minus compensation minus write-off for every owner that
// appears in at least one of the three totals.
func (s *reportService) balance(ctx context.Context, dr domain.DateRange) ([]domain.ReportRow, error) {
	sign := map[domain.Kind]decimal.Decimal{
		domain.KindOvertime:     decimal.NewFromInt(1),
		domain.KindCompensation: decimal.NewFromInt(-1),
		domain.KindWriteOff:     decimal.NewFromInt(-1),
	}

	balances := map[string]*balanceEntry{}
	for _, kind := range domain.Kinds {
		totals, err := s.records.SumHoursByOwner(ctx, kind, dr)
		if err != nil {
			return nil, err
		}
		for _, t := range totals {
			e, ok := balances[t.Owner.ID]
			if !ok {
				e = &balanceEntry{name: t.Owner.Name}
				balances[t.Owner.ID] = e
			}
			e.hours = e.hours.Add(decimal.NewFromFloat(t.Hours).Mul(sign[kind]))
		}
	}

	rows := make([]domain.ReportRow, 0, len(balances))
	for id, e := range balances {
		rows = append(rows, domain.ReportRow{OwnerID: id, Name: e.name, Value: e.hours.Round(1).InexactFloat64()})
	}
	sortRows(rows)
	return rows, nil
}

// lateFrequency counts verified overtime records per owner that end after
// thresholdHour, start before 08:00, or run past midnight.
func (s *reportService) lateFrequency(ctx context.Context, dr domain.DateRange, thresholdHour int) ([]domain.ReportRow, error) {
	records, err := s.records.QueryFiltered(ctx, domain.KindOvertime, domain.RecordFilter{
		Range: dr,
		Hours: domain.AnyHours,
		Sort:  domain.SortAscending,
	})
	if err != nil {
		return nil, err
	}

	counts := map[string]*domain.ReportRow{}
	for _, rec := range records {
		ot, ok := rec.(*domain.OvertimeRecord)
		if !ok || !QualifiesLate(ot.Window, thresholdHour) {
			continue
		}
		row, ok := counts[ot.Owner.ID]
		if !ok {
			row = &domain.ReportRow{OwnerID: ot.Owner.ID, Name: ot.Owner.Name}
			counts[ot.Owner.ID] = row
		}
		row.Value++
	}

	rows := make([]domain.ReportRow, 0, len(counts))
	for _, row := range counts {
		rows = append(rows, *row)
	}
	sortRows(rows)
	return rows, nil
}

// QualifiesLate reports whether w counts toward the frequency report for
// thresholdHour.
func QualifiesLate(w domain.Window, thresholdHour int) bool {
	if !sameDay(w.Start, w.End) {
		return true
	}
	threshold := atHour(w.End, thresholdHour)
	if w.End.After(threshold) {
		return true
	}
	return w.Start.Before(atHour(w.Start, earlyStartHour))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func atHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location())
}

// sortRows orders by value descending. Ties fall back to name so output is
// stable, which callers must not rely on.
func sortRows(rows []domain.ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].OwnerID < rows[j].OwnerID
	})
}

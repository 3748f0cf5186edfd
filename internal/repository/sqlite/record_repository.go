package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
)

// table describes how one record kind is laid out.
type table struct {
	name    string
	dateCol string
	columns string
}

var tables = map[domain.Kind]table{
	domain.KindOvertime: {
		name:    "overtime",
		dateCol: "start_time",
		columns: "id, start_time, end_time, hours, owner_id, owner_name, shift, room, verified, created_at",
	},
	domain.KindCompensation: {
		name:    "compensation",
		dateCol: "start_time",
		columns: "id, start_time, end_time, hours, owner_id, owner_name, verified, created_at",
	},
	domain.KindWriteOff: {
		name:    "writeoff",
		dateCol: "date",
		columns: "id, date, hours, owner_id, owner_name, verified, created_at",
	},
}

func tableFor(kind domain.Kind) (table, error) {
	t, ok := tables[kind]
	if !ok {
		return table{}, fmt.Errorf("unknown record kind %q", kind)
	}
	return t, nil
}

// RecordRepository stores records as wall-clock times in loc.
type RecordRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewRecordRepository(db *sql.DB, loc *time.Location) repository.RecordRepository {
	if loc == nil {
		loc = time.Local
	}
	return &RecordRepository{db: db, loc: loc}
}

func (r *RecordRepository) Insert(ctx context.Context, record domain.Record) (string, error) {
	id := uuid.NewString()
	now := time.Now().In(r.loc).Truncate(time.Second)

	var (
		res sql.Result
		err error
	)
	switch rec := record.(type) {
	case *domain.OvertimeRecord:
		res, err = r.db.ExecContext(ctx, `
INSERT INTO overtime (id, start_time, end_time, hours, owner_id, owner_name, shift, room, verified, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			formatTime(rec.Window.Start, r.loc),
			formatTime(rec.Window.End, r.loc),
			rec.Hours,
			rec.Owner.ID,
			rec.Owner.Name,
			rec.Shift,
			rec.Room,
			rec.Verified,
			formatTime(now, r.loc),
		)
		if err == nil {
			rec.ID, rec.CreatedAt = id, now
		}
	case *domain.CompensationRecord:
		res, err = r.db.ExecContext(ctx, `
INSERT INTO compensation (id, start_time, end_time, hours, owner_id, owner_name, verified, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			formatTime(rec.Window.Start, r.loc),
			formatTime(rec.Window.End, r.loc),
			rec.Hours,
			rec.Owner.ID,
			rec.Owner.Name,
			rec.Verified,
			formatTime(now, r.loc),
		)
		if err == nil {
			rec.ID, rec.CreatedAt = id, now
		}
	case *domain.WriteOffRecord:
		res, err = r.db.ExecContext(ctx, `
INSERT INTO writeoff (id, date, hours, owner_id, owner_name, verified, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id,
			formatTime(rec.Date, r.loc),
			rec.Hours,
			rec.Owner.ID,
			rec.Owner.Name,
			rec.Verified,
			formatTime(now, r.loc),
		)
		if err == nil {
			rec.ID, rec.CreatedAt = id, now
		}
	default:
		return "", fmt.Errorf("insert record: unsupported type %T", record)
	}

	op := "insert " + string(record.Kind())
	if err != nil {
		return "", &domain.PersistenceError{Op: op, Err: err}
	}
	if err := requireOneRow(res); err != nil {
		return "", &domain.PersistenceError{Op: op, Err: err}
	}
	return id, nil
}

func (r *RecordRepository) Get(ctx context.Context, kind domain.Kind, id string) (domain.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, t.columns, t.name), id)
	rec, err := r.scan(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return rec, err
}

// SetVerified is idempotent and silently ignores unknown ids.
func (r *RecordRepository) SetVerified(ctx context.Context, kind domain.Kind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`UPDATE %s SET verified = 1 WHERE id = ?`, t.name), id); err != nil {
		return &domain.PersistenceError{Op: "verify " + string(kind), Err: err}
	}
	return nil
}

// Delete is best effort: removing an absent id is not an error.
func (r *RecordRepository) Delete(ctx context.Context, kind domain.Kind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, t.name), id); err != nil {
		return &domain.PersistenceError{Op: "delete " + string(kind), Err: err}
	}
	return nil
}

func (r *RecordRepository) QueryFiltered(ctx context.Context, kind domain.Kind, filter domain.RecordFilter) ([]domain.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	lo, hi := filter.Range.Bounds()

	where := []string{"verified = 1", t.dateCol + " >= ?", t.dateCol + " < ?"}
	args := []any{formatTime(lo, r.loc), formatTime(hi, r.loc)}
	if filter.OwnerName != "" {
		where = append(where, "owner_name = ?")
		args = append(args, filter.OwnerName)
	}
	where = append(where, "hours >= ?", "hours <= ?")
	args = append(args, filter.Hours.Min, filter.Hours.Max)

	order := "ASC"
	if filter.Sort == domain.SortDescending {
		order = "DESC"
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE %s
ORDER BY hours %s, %s ASC`, t.columns, t.name, strings.Join(where, " AND "), order, t.dateCol)

	return r.queryRecords(ctx, kind, query, args...)
}

func (r *RecordRepository) QueryUnverified(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE verified = 0`, t.columns, t.name)
	return r.queryRecords(ctx, kind, query)
}

func (r *RecordRepository) SumHoursByOwner(ctx context.Context, kind domain.Kind, dr domain.DateRange) ([]domain.OwnerTotal, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	lo, hi := dr.Bounds()

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
SELECT owner_id, MAX(owner_name), SUM(hours)
FROM %s
WHERE verified = 1 AND %s >= ? AND %s < ?
GROUP BY owner_id`, t.name, t.dateCol, t.dateCol),
		formatTime(lo, r.loc),
		formatTime(hi, r.loc),
	)
	if err != nil {
		return nil, fmt.Errorf("sum %s hours: %w", kind, err)
	}
	defer rows.Close()

	totals := []domain.OwnerTotal{}
	for rows.Next() {
		var total domain.OwnerTotal
		if err := rows.Scan(&total.Owner.ID, &total.Owner.Name, &total.Hours); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", kind, err)
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}

func (r *RecordRepository) queryRecords(ctx context.Context, kind domain.Kind, query string, args ...any) ([]domain.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := r.scan(kind, rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepository) scan(kind domain.Kind, row scanner) (domain.Record, error) {
	var (
		start, end, createdAt string
		err                   error
	)
	switch kind {
	case domain.KindOvertime:
		var rec domain.OvertimeRecord
		if err = row.Scan(&rec.ID, &start, &end, &rec.Hours, &rec.Owner.ID, &rec.Owner.Name, &rec.Shift, &rec.Room, &rec.Verified, &createdAt); err != nil {
			return nil, scanErr(kind, err)
		}
		if rec.Window, err = r.parseWindow(start, end); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = parseTime(createdAt, r.loc); err != nil {
			return nil, err
		}
		return &rec, nil
	case domain.KindCompensation:
		var rec domain.CompensationRecord
		if err = row.Scan(&rec.ID, &start, &end, &rec.Hours, &rec.Owner.ID, &rec.Owner.Name, &rec.Verified, &createdAt); err != nil {
			return nil, scanErr(kind, err)
		}
		if rec.Window, err = r.parseWindow(start, end); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = parseTime(createdAt, r.loc); err != nil {
			return nil, err
		}
		return &rec, nil
	case domain.KindWriteOff:
		var rec domain.WriteOffRecord
		if err = row.Scan(&rec.ID, &start, &rec.Hours, &rec.Owner.ID, &rec.Owner.Name, &rec.Verified, &createdAt); err != nil {
			return nil, scanErr(kind, err)
		}
		if rec.Date, err = parseTime(start, r.loc); err != nil {
			return nil, err
		}
		if rec.CreatedAt, err = parseTime(createdAt, r.loc); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	return nil, fmt.Errorf("unknown record kind %q", kind)
}

func (r *RecordRepository) parseWindow(start, end string) (domain.Window, error) {
	s, err := parseTime(start, r.loc)
	if err != nil {
		return domain.Window{}, err
	}
	e, err := parseTime(end, r.loc)
	if err != nil {
		return domain.Window{}, err
	}
	return domain.Window{Start: s, End: e}, nil
}

func scanErr(kind domain.Kind, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return fmt.Errorf("scan %s: %w", kind, err)
}

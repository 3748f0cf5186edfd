package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"attendance-tracker/internal/access"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
	"attendance-tracker/internal/timewindow"
)

// IntervalInput is a submitted overtime or compensation form.
type IntervalInput struct {
	Start string
	End   string
	Shift string
	Room  string
	// Owner names the user the record is for; empty means the caller.
	Owner string
}

// WriteOffInput is a submitted write-off form.
type WriteOffInput struct {
	Date  string
	Hours string
	Owner string
}

// BatchInput creates the same record for every recipient.
type BatchInput struct {
	Kind       domain.Kind
	Start      string
	End        string
	Shift      string
	Room       string
	Date       string
	Hours      string
	Recipients []string
}

// BatchFailure explains why one recipient got no record.
type BatchFailure struct {
	Recipient string
	Reason    string
}

// BatchResult reports partial success of a batch submission.
type BatchResult struct {
	Kind      domain.Kind
	Requested int
	Inserted  int
	Failed    []BatchFailure
}

func (r *BatchResult) Summary() string {
	return fmt.Sprintf("%d of %d succeeded", r.Inserted, r.Requested)
}

// QueryInput is the filtered record view form. Empty fields are unset.
type QueryInput struct {
	From     string
	To       string
	Owner    string
	HoursMin string
	HoursMax string
	Sort     string
}

// RecordService coordinates record submission and lookup.
type RecordService interface {
	SubmitInterval(ctx context.Context, caller domain.Caller, kind domain.Kind, in IntervalInput) (domain.Record, error)
	SubmitWriteOff(ctx context.Context, caller domain.Caller, in WriteOffInput) (domain.Record, error)
	BatchSubmit(ctx context.Context, caller domain.Caller, in BatchInput) (*BatchResult, error)
	Query(ctx context.Context, caller domain.Caller, kind domain.Kind, in QueryInput) ([]domain.Record, error)
}

type recordService struct {
	records repository.RecordRepository
	users   repository.UserRepository
	loc     *time.Location
	now     func() time.Time
	log     *logrus.Entry
}

// RecordServiceOption customises a RecordService.
type RecordServiceOption func(*recordService)

// WithClock overrides the time source used for freshness checks.
func WithClock(now func() time.Time) RecordServiceOption {
	return func(s *recordService) { s.now = now }
}

func NewRecordService(records repository.RecordRepository, users repository.UserRepository, loc *time.Location, log *logrus.Entry, opts ...RecordServiceOption) RecordService {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &recordService{
		records: records,
		users:   users,
		loc:     loc,
		now:     time.Now,
		log:     log.WithField("component", "records"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *recordService) SubmitInterval(ctx context.Context, caller domain.Caller, kind domain.Kind, in IntervalInput) (domain.Record, error) {
	if !kind.Interval() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("%s records have no time range", kind))
	}
	if err := access.Require(caller, access.SubmitOwn); err != nil {
		return nil, err
	}
	owner, err := s.resolveOwner(ctx, caller, in.Owner)
	if err != nil {
		return nil, err
	}

	w, err := s.parseWindow(in.Start, in.End)
	if err != nil {
		return nil, err
	}
	if err := timewindow.Check(w.Start, w.End, s.now()).Err(); err != nil {
		return nil, err
	}

	rec := newIntervalRecord(kind, w, owner, in.Shift, in.Room)
	if _, err := s.records.Insert(ctx, rec); err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("insert record failed")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"kind": kind, "id": rec.RecordID(), "owner": owner.Name}).Info("record submitted")
	return rec, nil
}

func (s *recordService) SubmitWriteOff(ctx context.Context, caller domain.Caller, in WriteOffInput) (domain.Record, error) {
	if err := access.Require(caller, access.SubmitWriteOff); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Owner) == "" {
		return nil, domain.NewValidationError("owner", "a user must be selected")
	}
	owner, err := s.lookupOwner(ctx, in.Owner)
	if err != nil {
		return nil, err
	}
	date, hours, err := s.parseWriteOff(in.Date, in.Hours)
	if err != nil {
		return nil, err
	}

	rec := &domain.WriteOffRecord{Date: date, Hours: hours, Owner: owner}
	if _, err := s.records.Insert(ctx, rec); err != nil {
		s.log.WithError(err).Warn("insert write-off failed")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"kind": domain.KindWriteOff, "id": rec.ID, "owner": owner.Name}).Info("record submitted")
	return rec, nil
}

// BatchSubmit validates the shared fields once, then inserts one record per
// recipient. Inserts are independent: a failure is recorded and the loop goes on.
func (s *recordService) BatchSubmit(ctx context.Context, caller domain.Caller, in BatchInput) (*BatchResult, error) {
	if err := access.Require(caller, access.BatchSubmit); err != nil {
		return nil, err
	}

	var build func(owner domain.OwnerRef) domain.Record
	switch in.Kind {
	case domain.KindOvertime, domain.KindCompensation:
		w, err := s.parseWindow(in.Start, in.End)
		if err != nil {
			return nil, err
		}
		// admins may back-fill, so only the interval rule applies here
		if err := timewindow.Validate(w.Start, w.End).Err(); err != nil {
			return nil, err
		}
		build = func(owner domain.OwnerRef) domain.Record {
			return newIntervalRecord(in.Kind, w, owner, in.Shift, in.Room)
		}
	case domain.KindWriteOff:
		date, hours, err := s.parseWriteOff(in.Date, in.Hours)
		if err != nil {
			return nil, err
		}
		build = func(owner domain.OwnerRef) domain.Record {
			return &domain.WriteOffRecord{Date: date, Hours: hours, Owner: owner}
		}
	default:
		return nil, domain.NewValidationError("kind", fmt.Sprintf("unknown record kind %q", in.Kind))
	}

	res := &BatchResult{Kind: in.Kind, Requested: len(in.Recipients)}
	for _, name := range in.Recipients {
		owner, err := s.lookupOwner(ctx, name)
		if err != nil {
			res.Failed = append(res.Failed, BatchFailure{Recipient: name, Reason: err.Error()})
			continue
		}
		if _, err := s.records.Insert(ctx, build(owner)); err != nil {
			res.Failed = append(res.Failed, BatchFailure{Recipient: name, Reason: err.Error()})
			continue
		}
		res.Inserted++
	}

	entry := s.log.WithFields(logrus.Fields{"kind": in.Kind, "requested": res.Requested, "inserted": res.Inserted, "by": caller.Name})
	if len(res.Failed) > 0 {
		entry.Warn("batch submission partially failed")
	} else {
		entry.Info("batch submitted")
	}
	return res, nil
}

func (s *recordService) Query(ctx context.Context, caller domain.Caller, kind domain.Kind, in QueryInput) ([]domain.Record, error) {
	if err := access.Require(caller, access.ViewRecords); err != nil {
		return nil, err
	}
	dr, err := domain.ParseDateRange(in.From, in.To, s.loc)
	if err != nil {
		return nil, err
	}
	hours, err := domain.ParseHoursRange(in.HoursMin, in.HoursMax)
	if err != nil {
		return nil, err
	}
	sort, err := domain.ParseSortDirection(in.Sort)
	if err != nil {
		return nil, err
	}

	filter := domain.RecordFilter{Range: dr, OwnerName: strings.TrimSpace(in.Owner), Hours: hours, Sort: sort}
	return s.records.QueryFiltered(ctx, kind, filter)
}

// resolveOwner returns the caller itself unless another user is named, which
// requires the admin capability.
func (s *recordService) resolveOwner(ctx context.Context, caller domain.Caller, name string) (domain.OwnerRef, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == caller.Name {
		return caller.Owner(), nil
	}
	if err := access.Require(caller, access.SubmitForOthers); err != nil {
		return domain.OwnerRef{}, err
	}
	return s.lookupOwner(ctx, name)
}

func (s *recordService) lookupOwner(ctx context.Context, name string) (domain.OwnerRef, error) {
	user, err := s.users.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.OwnerRef{}, domain.NewValidationError("owner", fmt.Sprintf("unknown user %q", name))
		}
		return domain.OwnerRef{}, err
	}
	return domain.OwnerRef{ID: user.ID, Name: user.Name}, nil
}

func (s *recordService) parseWindow(start, end string) (domain.Window, error) {
	st, err := domain.ParseDateTime("start", start, s.loc)
	if err != nil {
		return domain.Window{}, err
	}
	en, err := domain.ParseDateTime("end", end, s.loc)
	if err != nil {
		return domain.Window{}, err
	}
	return domain.Window{Start: st, End: en}, nil
}

func (s *recordService) parseWriteOff(date, hours string) (time.Time, float64, error) {
	d, err := domain.ParseDate("date", date, s.loc)
	if err != nil {
		return time.Time{}, 0, err
	}
	h, err := domain.ParseHours("hours", hours)
	if err != nil {
		return time.Time{}, 0, err
	}
	return d, h, nil
}

func newIntervalRecord(kind domain.Kind, w domain.Window, owner domain.OwnerRef, shift, room string) domain.Record {
	if kind == domain.KindCompensation {
		return &domain.CompensationRecord{Window: w, Hours: w.Hours(), Owner: owner}
	}
	return &domain.OvertimeRecord{
		Window: w,
		Hours:  w.Hours(),
		Owner:  owner,
		Shift:  strings.TrimSpace(shift),
		Room:   strings.TrimSpace(room),
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the record collections.
type Kind string

const (
	KindOvertime     Kind = "overtime"
	KindCompensation Kind = "compensation"
	KindWriteOff     Kind = "writeoff"
)

// Kinds lists every record kind in display order.
var Kinds = []Kind{KindOvertime, KindCompensation, KindWriteOff}

// ParseKind maps a collection name to its Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOvertime, KindCompensation, KindWriteOff:
		return k, nil
	}
	return "", NewValidationError("kind", fmt.Sprintf("unknown record kind %q", s))
}

// Interval reports whether records of this kind carry a start/end pair.
func (k Kind) Interval() bool {
	return k == KindOvertime || k == KindCompensation
}

// OwnerRef points at the user a record belongs to. Name is a snapshot taken
// when the record was created; deleting the user does not touch the record.
type OwnerRef struct {
	ID   string
	Name string
}

// Record is the shared view over the three record variants.
type Record interface {
	Kind() Kind
	RecordID() string
	RecordOwner() OwnerRef
	RecordHours() float64
	// DatedAt is the instant date-range filters apply to.
	DatedAt() time.Time
	IsVerified() bool

	sealed()
}

// Window is a start/end pair.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the wall-clock span from start to end.
func (w Window) Duration() time.Duration { return WallClockSpan(w.Start, w.End) }

// WallClockSpan measures end - start on the clock face of start's location,
// ignoring daylight saving offset changes in between.
func WallClockSpan(start, end time.Time) time.Duration {
	return floating(end.In(start.Location())).Sub(floating(start))
}

func floating(t time.Time) time.Time {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, m, d, h, mi, s, t.Nanosecond(), time.UTC)
}

// Hours converts the window to fractional hours, counting whole seconds only.
func (w Window) Hours() float64 {
	return float64(int64(w.Duration()/time.Second)) / 3600
}

type OvertimeRecord struct {
	ID        string
	Window    Window
	Hours     float64
	Owner     OwnerRef
	Shift     string
	Room      string
	Verified  bool
	CreatedAt time.Time
}

func (r *OvertimeRecord) Kind() Kind            { return KindOvertime }
func (r *OvertimeRecord) RecordID() string      { return r.ID }
func (r *OvertimeRecord) RecordOwner() OwnerRef { return r.Owner }
func (r *OvertimeRecord) RecordHours() float64  { return r.Hours }
func (r *OvertimeRecord) DatedAt() time.Time    { return r.Window.Start }
func (r *OvertimeRecord) IsVerified() bool      { return r.Verified }
func (r *OvertimeRecord) sealed()               {}

type CompensationRecord struct {
	ID        string
	Window    Window
	Hours     float64
	Owner     OwnerRef
	Verified  bool
	CreatedAt time.Time
}

func (r *CompensationRecord) Kind() Kind            { return KindCompensation }
func (r *CompensationRecord) RecordID() string      { return r.ID }
func (r *CompensationRecord) RecordOwner() OwnerRef { return r.Owner }
func (r *CompensationRecord) RecordHours() float64  { return r.Hours }
func (r *CompensationRecord) DatedAt() time.Time    { return r.Window.Start }
func (r *CompensationRecord) IsVerified() bool      { return r.Verified }
func (r *CompensationRecord) sealed()               {}

// WriteOffRecord deducts hours from an owner's balance on a given day.
type WriteOffRecord struct {
	ID        string
	Date      time.Time
	Hours     float64
	Owner     OwnerRef
	Verified  bool
	CreatedAt time.Time
}

func (r *WriteOffRecord) Kind() Kind            { return KindWriteOff }
func (r *WriteOffRecord) RecordID() string      { return r.ID }
func (r *WriteOffRecord) RecordOwner() OwnerRef { return r.Owner }
func (r *WriteOffRecord) RecordHours() float64  { return r.Hours }
func (r *WriteOffRecord) DatedAt() time.Time    { return r.Date }
func (r *WriteOffRecord) IsVerified() bool      { return r.Verified }
func (r *WriteOffRecord) sealed()               {}

var (
	_ Record = (*OvertimeRecord)(nil)
	_ Record = (*CompensationRecord)(nil)
	_ Record = (*WriteOffRecord)(nil)
)

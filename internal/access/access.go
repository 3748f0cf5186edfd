// Package access decides which actions a caller's role permits.
package access

import (
	"fmt"

	"attendance-tracker/internal/domain"
)

// Action is a capability a request asks for.
type Action string

const (
	SubmitOwn       Action = "submit-own"
	SubmitForOthers Action = "submit-for-others"
	SubmitWriteOff  Action = "submit-writeoff"
	BatchSubmit     Action = "batch-submit"
	Review          Action = "review"
	ListUnverified  Action = "list-unverified"
	ManageUsers     Action = "manage-users"
	ViewRecords     Action = "view-records"
	ViewReports     Action = "view-reports"
	ArchiveReports  Action = "archive-reports"
)

var adminOnly = map[Action]bool{
	SubmitForOthers: true,
	SubmitWriteOff:  true,
	BatchSubmit:     true,
	Review:          true,
	ListUnverified:  true,
	ManageUsers:     true,
	ArchiveReports:  true,
}

// Decision is the explicit outcome of a capability check.
type Decision int

const (
	Forbidden Decision = iota
	Authorized
)

func (d Decision) Allowed() bool { return d == Authorized }

// Check returns the decision for caller performing action.
func Check(caller domain.Caller, action Action) Decision {
	if caller.UserID == "" || !caller.Role.Valid() {
		return Forbidden
	}
	if adminOnly[action] && !caller.IsAdmin() {
		return Forbidden
	}
	return Authorized
}

// Require turns a Forbidden decision into an error wrapping domain.ErrForbidden.
func Require(caller domain.Caller, action Action) error {
	if Check(caller, action).Allowed() {
		return nil
	}
	return fmt.Errorf("%s may not %s: %w", caller.Name, action, domain.ErrForbidden)
}

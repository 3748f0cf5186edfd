package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"attendance-tracker/internal/access"
	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/repository"
)

// ReviewAction is an admin decision on a pending record.
type ReviewAction string

const (
	ActionConfirm ReviewAction = "confirm"
	ActionReject  ReviewAction = "reject"
)

func ParseReviewAction(s string) (ReviewAction, error) {
	switch a := ReviewAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionConfirm, ActionReject:
		return a, nil
	}
	return "", domain.NewValidationError("action", "must be confirm or reject")
}

// PendingRecords groups unverified records by kind.
type PendingRecords map[domain.Kind][]domain.Record

// VerificationService moves records from unverified to verified or deleted.
type VerificationService interface {
	Review(ctx context.Context, caller domain.Caller, kind domain.Kind, id string, action ReviewAction) error
	ListUnverified(ctx context.Context, caller domain.Caller) (PendingRecords, error)
}

type verificationService struct {
	records repository.RecordRepository
	log     *logrus.Entry
}

func NewVerificationService(records repository.RecordRepository, log *logrus.Entry) VerificationService {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &verificationService{records: records, log: log.WithField("component", "verification")}
}

// Review confirms or rejects a record. Unknown ids are treated as already
// handled; a verified record can no longer be rejected.
func (s *verificationService) Review(ctx context.Context, caller domain.Caller, kind domain.Kind, id string, action ReviewAction) error {
	if err := access.Require(caller, access.Review); err != nil {
		return err
	}

	rec, err := s.records.Get(ctx, kind, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	entry := s.log.WithFields(logrus.Fields{"kind": kind, "id": id, "by": caller.Name})
	switch action {
	case ActionConfirm:
		if err := s.records.SetVerified(ctx, kind, id); err != nil {
			return err
		}
		entry.Info("record verified")
	case ActionReject:
		if rec.IsVerified() {
			return domain.NewValidationError("action", fmt.Sprintf("%s %s is already verified", kind, id))
		}
		if err := s.records.Delete(ctx, kind, id); err != nil {
			return err
		}
		entry.Info("record rejected")
	default:
		return domain.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
	}
	return nil
}

func (s *verificationService) ListUnverified(ctx context.Context, caller domain.Caller) (PendingRecords, error) {
	if err := access.Require(caller, access.ListUnverified); err != nil {
		return nil, err
	}
	pending := PendingRecords{}
	for _, kind := range domain.Kinds {
		recs, err := s.records.QueryUnverified(ctx, kind)
		if err != nil {
			return nil, err
		}
		pending[kind] = recs
	}
	return pending, nil
}

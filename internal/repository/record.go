package repository

import (
	"context"

	"attendance-tracker/internal/domain"
)

// RecordRepository exposes persistence for the three record kinds. The kind
// is carried by the record on writes and passed explicitly on reads.
type RecordRepository interface {
	Insert(ctx context.Context, record domain.Record) (string, error)
	Get(ctx context.Context, kind domain.Kind, id string) (domain.Record, error)
	SetVerified(ctx context.Context, kind domain.Kind, id string) error
	Delete(ctx context.Context, kind domain.Kind, id string) error
	QueryFiltered(ctx context.Context, kind domain.Kind, filter domain.RecordFilter) ([]domain.Record, error)
	QueryUnverified(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
	SumHoursByOwner(ctx context.Context, kind domain.Kind, r domain.DateRange) ([]domain.OwnerTotal, error)
}

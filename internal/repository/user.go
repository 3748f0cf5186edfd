package repository

import (
	"context"

	"attendance-tracker/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) (string, error)
	FindByName(ctx context.Context, name string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	CountByName(ctx context.Context, name string) (int, error)
	ListAllNames(ctx context.Context) ([]string, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	DeleteByID(ctx context.Context, id string) error
}

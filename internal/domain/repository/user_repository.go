package repository

import (
	"context"

	"github.com/tulisku/tulisku/internal/domain/entity"
)

// UserRepository is the identity provider persistence contract.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

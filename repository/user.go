package repository

import (
	"context"

	"github.com/fastygo/taskapi/domain"
)

// UserRepository persists accounts. Emails are unique; a write that would
// duplicate one fails with domain.ErrEmailTaken.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
}

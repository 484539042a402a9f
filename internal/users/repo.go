package users

import (
	"context"
	"time"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

var ErrNotFound = apperr.ErrNotFound

type Repo interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByProvider(ctx context.Context, provider, subject string) (User, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
	SetExpiry(ctx context.Context, userID string, expiry time.Time) error
}

func userNotFound() error {
	return apperr.NotFound("user not found")
}

func emailTaken() error {
	return apperr.Conflict("a user with this email already exists")
}

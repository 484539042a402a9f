package payments

import (
	"context"
	"time"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

// DecideFunc inspects a locked payment and returns the transition to write,
// or false to leave the row untouched.
type DecideFunc func(p Payment) (Transition, bool)

type Repo interface {
	Create(ctx context.Context, p Payment) error
	GetByID(ctx context.Context, paymentID string) (Payment, error)
	ListByUser(ctx context.Context, userID string) ([]Payment, error)
	// ApplyTransition locks the payment for intentID, lets decide pick a
	// transition and writes it together with any premium grant. It reports
	// whether anything was written.
	ApplyTransition(ctx context.Context, intentID string, decide DecideFunc) (Payment, bool, error)
}

// ExpirySetter writes a user's premium cutoff.
type ExpirySetter interface {
	SetExpiry(ctx context.Context, userID string, expiry time.Time) error
}

func paymentNotFound() error {
	return apperr.NotFound("payment not found")
}

func intentTaken() error {
	return apperr.Conflict("payment intent already recorded")
}

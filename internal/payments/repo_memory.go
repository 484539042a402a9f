package payments

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	payments map[string]Payment
	byIntent map[string]string
	users    ExpirySetter
}

func NewMemoryRepo(users ExpirySetter) *MemoryRepo {
	return &MemoryRepo{
		payments: make(map[string]Payment),
		byIntent: make(map[string]string),
		users:    users,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, p Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byIntent[p.IntentID]; ok {
		return intentTaken()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.payments[p.ID] = p
	r.byIntent[p.IntentID] = p.ID
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, paymentID string) (Payment, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return Payment{}, paymentNotFound()
	}
	return p, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Payment{}
	for _, p := range r.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ApplyTransition holds the write lock for the whole decision, which stands
// in for the row lock taken by the Postgres repo.
func (r *MemoryRepo) ApplyTransition(ctx context.Context, intentID string, decide DecideFunc) (Payment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Payment{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byIntent[intentID]
	if !ok {
		return Payment{}, false, paymentNotFound()
	}
	p := r.payments[id]
	t, ok := decide(p)
	if !ok {
		return p, false, nil
	}
	if t.PremiumUntil != nil {
		if err := r.users.SetExpiry(ctx, p.UserID, *t.PremiumUntil); err != nil {
			return Payment{}, false, err
		}
	}
	p.Status = t.Status
	p.FailureCode = t.FailureCode
	p.FailureMessage = t.FailureMessage
	p.UpdatedAt = time.Now().UTC()
	r.payments[id] = p
	return p, true, nil
}

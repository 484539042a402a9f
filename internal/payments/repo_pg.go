package payments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/karthik1704/rsr-v1/internal/shared/storage/db"
	"github.com/karthik1704/rsr-v1/internal/users"
)

type PGRepo struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const paymentColumns = `id, user_id, resume_id, amount, currency, status, intent_id,
  failure_code, failure_message, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, p Payment) error {
	const query = `
INSERT INTO payments (id, user_id, resume_id, amount, currency, status, intent_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`
	_, err := r.DB.ExecContext(ctx, query, p.ID, p.UserID, p.ResumeID, p.Amount, p.Currency, string(p.Status), p.IntentID)
	if db.IsUniqueViolation(err, "payments_intent_id_key") {
		return intentTaken()
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, paymentID string) (Payment, error) {
	p, err := scanPayment(r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Payment{}, paymentNotFound()
	}
	return p, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Payment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyTransition serializes concurrent deliveries for one intent with
// SELECT ... FOR UPDATE; the user expiry is written in the same transaction.
func (r *PGRepo) ApplyTransition(ctx context.Context, intentID string, decide DecideFunc) (Payment, bool, error) {
	var (
		out     Payment
		changed bool
	)
	err := db.WithTx(ctx, r.DB, func(tx *sql.Tx) error {
		p, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE intent_id = $1 FOR UPDATE`, intentID))
		if errors.Is(err, sql.ErrNoRows) {
			return paymentNotFound()
		}
		if err != nil {
			return err
		}
		out = p

		t, ok := decide(p)
		if !ok {
			return nil
		}
		const update = `
UPDATE payments SET status = $2, failure_code = $3, failure_message = $4, updated_at = now()
WHERE id = $1
RETURNING updated_at`
		if err := tx.QueryRowContext(ctx, update, p.ID, string(t.Status), t.FailureCode, t.FailureMessage).
			Scan(&out.UpdatedAt); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if t.PremiumUntil != nil {
			if err := users.SetExpiryWith(ctx, tx, p.UserID, *t.PremiumUntil); err != nil {
				return err
			}
		}
		out.Status = t.Status
		out.FailureCode = t.FailureCode
		out.FailureMessage = t.FailureMessage
		changed = true
		return nil
	})
	if err != nil {
		return Payment{}, false, err
	}
	return out, changed, nil
}

func scanPayment(row rowScanner) (Payment, error) {
	var (
		p        Payment
		status   string
		resumeID sql.NullString
		code     sql.NullString
		message  sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &resumeID, &p.Amount, &p.Currency, &status, &p.IntentID,
		&code, &message, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Payment{}, err
	}
	p.Status = Status(status)
	p.ResumeID = nullable(resumeID)
	p.FailureCode = nullable(code)
	p.FailureMessage = nullable(message)
	return p, nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

package payments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karthik1704/rsr-v1/internal/resumes"
	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/metrics"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

const DefaultPremiumPeriod = 90 * 24 * time.Hour

// ResumeOwner confirms that a resume referenced by a payment belongs to the
// payer.
type ResumeOwner interface {
	GetOwned(ctx context.Context, owner, resumeID string) (resumes.Aggregate, error)
}

type Service struct {
	Repo          Repo
	Processor     Processor
	Resumes       ResumeOwner
	PremiumPeriod time.Duration
	Now           func() time.Time
}

func NewService(repo Repo, processor Processor, resumes ResumeOwner, premiumPeriod time.Duration) *Service {
	if premiumPeriod <= 0 {
		premiumPeriod = DefaultPremiumPeriod
	}
	return &Service{
		Repo:          repo,
		Processor:     processor,
		Resumes:       resumes,
		PremiumPeriod: premiumPeriod,
		Now:           time.Now,
	}
}

// Create opens a processor intent and records a pending payment for it.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (Checkout, error) {
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	var issues []apperr.FieldIssue
	if in.Amount <= 0 {
		issues = append(issues, apperr.FieldIssue{Field: "amount", Issue: "must be positive"})
	}
	if len(currency) != 3 {
		issues = append(issues, apperr.FieldIssue{Field: "currency", Issue: "must be a 3-letter ISO code"})
	}
	if len(issues) > 0 {
		return Checkout{}, apperr.Invalid("invalid payment", issues...)
	}
	if in.ResumeID != nil && s.Resumes != nil {
		if _, err := s.Resumes.GetOwned(ctx, userID, *in.ResumeID); err != nil {
			return Checkout{}, err
		}
	}

	p := Payment{
		ID:       uuid.NewString(),
		UserID:   userID,
		ResumeID: in.ResumeID,
		Amount:   in.Amount,
		Currency: currency,
		Status:   StatusPending,
	}
	intent, err := s.Processor.CreateIntent(ctx, p.Amount, p.Currency, map[string]string{
		"payment_id": p.ID,
		"user_id":    userID,
	})
	if err != nil {
		return Checkout{}, err
	}
	p.IntentID = intent.ID
	if err := s.Repo.Create(ctx, p); err != nil {
		return Checkout{}, err
	}
	telemetry.Info("payment.created", map[string]any{
		"payment_id": p.ID,
		"user_id":    userID,
		"intent_id":  p.IntentID,
		"amount":     p.Amount,
		"currency":   p.Currency,
	})
	stored, err := s.Repo.GetByID(ctx, p.ID)
	if err != nil {
		return Checkout{}, err
	}
	return Checkout{Payment: stored, ClientSecret: intent.ClientSecret}, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Payment, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// HandleWebhook verifies and applies a processor notification. Events that
// carry no outcome are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.Processor.ParseEvent(payload, signature)
	if err != nil {
		return err
	}
	metrics.IncPaymentEvent()
	if ev.Status != StatusSucceeded && ev.Status != StatusFailed {
		telemetry.Debug("payment.event_ignored", map[string]any{"event_id": ev.ID, "type": ev.Type})
		return nil
	}
	_, err = s.apply(ctx, ev)
	return err
}

// Refresh asks the processor for the intent's current state and applies it
// under the same rules as a webhook. The client never supplies the status.
func (s *Service) Refresh(ctx context.Context, userID, paymentID string) (Payment, error) {
	p, err := s.Repo.GetByID(ctx, paymentID)
	if err != nil {
		return Payment{}, err
	}
	if p.UserID != userID {
		return Payment{}, paymentNotFound()
	}
	ev, err := s.Processor.FetchIntent(ctx, p.IntentID)
	if err != nil {
		return Payment{}, err
	}
	if ev.Status != StatusSucceeded && ev.Status != StatusFailed {
		return p, nil
	}
	ev.IntentID = p.IntentID
	return s.apply(ctx, ev)
}

func (s *Service) apply(ctx context.Context, ev Event) (Payment, error) {
	p, changed, err := s.Repo.ApplyTransition(ctx, ev.IntentID, func(p Payment) (Transition, bool) {
		return s.decide(p, ev)
	})
	if err != nil {
		return Payment{}, err
	}
	fields := map[string]any{
		"payment_id": p.ID,
		"intent_id":  ev.IntentID,
		"event_id":   ev.ID,
		"status":     string(p.Status),
	}
	if !changed {
		telemetry.Info("payment.event_duplicate", fields)
		return p, nil
	}
	switch p.Status {
	case StatusSucceeded:
		metrics.IncPaymentSucceeded()
	case StatusFailed:
		metrics.IncPaymentFailed()
	}
	telemetry.Info("payment.transition", fields)
	return p, nil
}

// decide implements the ledger rules:
//   - only a pending payment moves; succeeded and failed are final
//   - succeeded grants premium until now + PremiumPeriod
//   - failed records the failure details
func (s *Service) decide(p Payment, ev Event) (Transition, bool) {
	if p.Status != StatusPending {
		return Transition{}, false
	}
	switch ev.Status {
	case StatusSucceeded:
		until := s.now().Add(s.PremiumPeriod).UTC()
		return Transition{Status: StatusSucceeded, PremiumUntil: &until}, true
	case StatusFailed:
		return Transition{
			Status:         StatusFailed,
			FailureCode:    optionalText(ev.FailureCode),
			FailureMessage: optionalText(ev.FailureMessage),
		}, true
	}
	return Transition{}, false
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

package payments

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
)

// StripeProcessor talks to Stripe payment intents and verifies Stripe
// webhook signatures.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProcessor builds a processor. backends may be nil to use the
// default Stripe endpoints.
func NewStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProcessor{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, apperr.External(err, "could not create payment intent")
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProcessor) FetchIntent(ctx context.Context, intentID string) (Event, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return Event{}, apperr.External(err, "could not fetch payment intent")
	}
	ev := Event{IntentID: pi.ID, Status: intentStatus(pi)}
	if ev.Status == StatusFailed {
		ev.FailureCode, ev.FailureMessage = lastError(pi)
	}
	return ev, nil
}

func (p *StripeProcessor) ParseEvent(payload []byte, signature string) (Event, error) {
	se, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, apperr.Validation("invalid webhook signature")
	}
	ev := Event{ID: se.ID, Type: string(se.Type)}
	switch ev.Type {
	case eventIntentSucceeded, eventIntentFailed:
	default:
		return ev, nil
	}
	if se.Data == nil {
		return Event{}, apperr.Validation("webhook event has no data")
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(se.Data.Raw, &pi); err != nil {
		return Event{}, apperr.Validation("malformed payment intent in webhook")
	}
	ev.IntentID = pi.ID
	if ev.Type == eventIntentSucceeded {
		ev.Status = StatusSucceeded
		return ev, nil
	}
	ev.Status = StatusFailed
	ev.FailureCode, ev.FailureMessage = lastError(&pi)
	return ev, nil
}

func intentStatus(pi *stripe.PaymentIntent) Status {
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return StatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return StatusFailed
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		if pi.LastPaymentError != nil {
			return StatusFailed
		}
	}
	return StatusPending
}

func lastError(pi *stripe.PaymentIntent) (code, message string) {
	if pi.LastPaymentError == nil {
		return "", ""
	}
	return string(pi.LastPaymentError.Code), pi.LastPaymentError.Msg
}

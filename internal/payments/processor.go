package payments

import "context"

// Intent is a processor-side payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a processor notification reduced to what the ledger needs. An
// empty Status means the event carries no outcome.
type Event struct {
	ID             string
	Type           string
	IntentID       string
	Status         Status
	FailureCode    string
	FailureMessage string
}

// Processor is the payment processor as seen by the ledger.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (Intent, error)
	// FetchIntent reads the current state of an intent from the processor.
	FetchIntent(ctx context.Context, intentID string) (Event, error)
	// ParseEvent verifies a webhook signature and decodes the payload.
	ParseEvent(payload []byte, signature string) (Event, error)
}

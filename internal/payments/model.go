package payments

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Payment is one payment-intent attempt. Only status and failure fields
// change after creation, and only from processor events.
type Payment struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	ResumeID       *string   `json:"resumeId,omitempty"`
	Amount         int64     `json:"amount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	IntentID       string    `json:"intentId"`
	FailureCode    *string   `json:"failureCode,omitempty"`
	FailureMessage *string   `json:"failureMessage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type CreateInput struct {
	Amount   int64
	Currency string
	ResumeID *string
}

// Checkout is returned when a payment starts; the client confirms the
// intent with the processor using ClientSecret.
type Checkout struct {
	Payment      Payment `json:"payment"`
	ClientSecret string  `json:"clientSecret"`
}

// Transition is a status change decided for a locked payment row.
type Transition struct {
	Status         Status
	FailureCode    *string
	FailureMessage *string
	// PremiumUntil, when set, is written to the owning user in the same
	// transaction.
	PremiumUntil *time.Time
}

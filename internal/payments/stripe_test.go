package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

const testWebhookSecret = "whsec_test"

func signPayload(secret string, payload []byte, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newStripeStub(t *testing.T, handler http.HandlerFunc) *StripeProcessor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return NewStripeProcessor("sk_test_123", testWebhookSecret, &stripe.Backends{API: backend})
}

func TestStripeParseSucceededEvent(t *testing.T) {
	p := NewStripeProcessor("sk_test_123", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded",
		"data":{"object":{"id":"pi_123","object":"payment_intent","status":"succeeded"}}}`)

	ev, err := p.ParseEvent(payload, signPayload(testWebhookSecret, payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, StatusSucceeded, ev.Status)
}

func TestStripeParseFailedEvent(t *testing.T) {
	p := NewStripeProcessor("sk_test_123", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.payment_failed",
		"data":{"object":{"id":"pi_9","object":"payment_intent","status":"requires_payment_method",
		"last_payment_error":{"code":"card_declined","message":"Your card was declined."}}}}`)

	ev, err := p.ParseEvent(payload, signPayload(testWebhookSecret, payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, ev.Status)
	assert.Equal(t, "pi_9", ev.IntentID)
	assert.Equal(t, "card_declined", ev.FailureCode)
	assert.Equal(t, "Your card was declined.", ev.FailureMessage)
}

func TestStripeParseRejectsBadSignature(t *testing.T) {
	p := NewStripeProcessor("sk_test_123", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{}}}`)

	_, err := p.ParseEvent(payload, signPayload("whsec_other", payload, time.Now()))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = p.ParseEvent(payload, signPayload(testWebhookSecret, payload, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStripeParseIgnoresOtherEvents(t *testing.T) {
	p := NewStripeProcessor("sk_test_123", testWebhookSecret, nil)
	payload := []byte(`{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`)

	ev, err := p.ParseEvent(payload, signPayload(testWebhookSecret, payload, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.Empty(t, ev.Status)
}

func TestStripeCreateIntent(t *testing.T) {
	p := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		assert.Equal(t, "eur", r.PostForm.Get("currency"))
		assert.Equal(t, "pay-1", r.PostForm.Get("metadata[payment_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret","status":"requires_payment_method"}`))
	})

	intent, err := p.CreateIntent(context.Background(), 1999, "eur", map[string]string{"payment_id": "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, Intent{ID: "pi_123", ClientSecret: "pi_123_secret"}, intent)
}

func TestStripeFetchIntentMapsStatus(t *testing.T) {
	p := newStripeStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/payment_intents/pi_ok":
			_, _ = w.Write([]byte(`{"id":"pi_ok","object":"payment_intent","status":"succeeded"}`))
		case "/v1/payment_intents/pi_open":
			_, _ = w.Write([]byte(`{"id":"pi_open","object":"payment_intent","status":"requires_payment_method"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`))
		}
	})

	ev, err := p.FetchIntent(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, ev.Status)

	ev, err = p.FetchIntent(context.Background(), "pi_open")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ev.Status)

	_, err = p.FetchIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, apperr.ErrExternal)
}

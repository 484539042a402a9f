package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("load resume: %w", NotFound("resume not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, "resume not found", Message(err, "fallback"))
}

func TestExternalKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := External(cause, "payment processor unavailable")

	assert.ErrorIs(t, err, ErrExternal)
	assert.ErrorIs(t, err, cause)
}

func TestInvalidCarriesDetails(t *testing.T) {
	err := Invalid("missing fields", FieldIssue{Field: "employer", Issue: "required"})

	issues, ok := Details(err).([]FieldIssue)
	assert.True(t, ok)
	assert.Equal(t, []FieldIssue{{Field: "employer", Issue: "required"}}, issues)
	assert.Equal(t, "fallback", Message(errors.New("plain"), "fallback"))
}

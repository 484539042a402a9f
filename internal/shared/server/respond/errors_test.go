package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestFromErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.NotFound("resume %s not found", "r1"), http.StatusNotFound, "not_found"},
		{apperr.Conflict("resume already exists"), http.StatusConflict, "conflict"},
		{apperr.Validation("bad"), http.StatusBadRequest, "validation_error"},
		{apperr.External(errors.New("timeout"), "payment processor unavailable"), http.StatusBadGateway, "external_error"},
		{apperr.Unauthorized("nope"), http.StatusUnauthorized, "unauthorized"},
		{apperr.Forbidden("staff only"), http.StatusForbidden, "forbidden"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec, body := serve(t, func(c *gin.Context) { FromError(c, tc.err) })
		assert.Equal(t, tc.status, rec.Code, tc.code)
		assert.Equal(t, tc.code, body.Error.Code)
	}
}

func TestFromErrorHidesInternalMessage(t *testing.T) {
	_, body := serve(t, func(c *gin.Context) { FromError(c, errors.New("pq: password leaked")) })
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestValidationDetailsAreForwarded(t *testing.T) {
	err := apperr.Invalid("missing fields", apperr.FieldIssue{Field: "employer", Issue: "required"})

	_, body := serve(t, func(c *gin.Context) { FromError(c, err) })

	details, ok := body.Error.Details.([]any)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, map[string]any{"field": "employer", "issue": "required"}, details[0])
}

func TestBindErrorListsValidatorFailures(t *testing.T) {
	type signup struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req signup
		if err := c.ShouldBindJSON(&req); err != nil {
			BindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", jsonBody(`{"email":"nope","password":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	details := body.Error.Details.([]any)
	assert.Len(t, details, 2)
	assert.Equal(t, "Email", details[0].(map[string]any)["field"])
	assert.Equal(t, "must be a valid email", details[0].(map[string]any)["issue"])
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestBindErrorTreatsMalformedBodyAsBadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req map[string]any
		if err := c.ShouldBindJSON(&req); err != nil {
			BindError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", jsonBody(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

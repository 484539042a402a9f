package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karthik1704/rsr-v1/internal/shared/auth"
	"github.com/karthik1704/rsr-v1/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	tm := auth.NewTokenManager("test-secret", "rsr", time.Hour)
	h := NewHandler(NewService(repo), tm, false)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth(tm, "/api/v1/auth/"))
	h.RegisterAuthRoutes(api)
	h.RegisterRoutes(api)
	return r, repo
}

func doJSON(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSignupLoginMe(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(r, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"ada@example.com","password":"correct-horse","password2":"correct-horse","firstName":"Ada"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(r, http.MethodPost, "/api/v1/auth/login", `{"email":"ada@example.com","password":"correct-horse"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(3600), tok.ExpiresIn)

	rec = doJSON(r, http.MethodGet, "/api/v1/me", "", tok.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, false, me["premium"])
	assert.NotContains(t, me, "PasswordHash")
}

func TestSignupDuplicateReturnsConflict(t *testing.T) {
	r, _ := newTestRouter(t)
	body := `{"email":"ada@example.com","password":"correct-horse","password2":"correct-horse"}`

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/auth/signup", body, "").Code)
	rec := doJSON(r, http.MethodPost, "/api/v1/auth/signup", body, "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupPasswordMismatchIsBadRequest(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(r, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"ada@example.com","password":"correct-horse","password2":"battery-staple"}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password2")
}

func TestTokenFormSetsCookie(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/auth/signup",
		`{"email":"ada@example.com","password":"correct-horse","password2":"correct-horse"}`, "").Code)

	form := url.Values{"username": {"ada@example.com"}, "password": {"correct-horse"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			found = true
			assert.True(t, c.HttpOnly)
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found, "expected access_token cookie")
}

func TestUsersListIsStaffOnly(t *testing.T) {
	r, repo := newTestRouter(t)
	tm := auth.NewTokenManager("test-secret", "rsr", time.Hour)
	require.NoError(t, repo.Create(t.Context(), User{ID: "staff-1", Email: "staff@example.com", IsActive: true, IsStaff: true}))

	plain, _ := tm.Generate(auth.Identity{UserID: "someone"})
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/api/v1/users", "", plain).Code)

	staff, _ := tm.Generate(IdentityOf(User{ID: "staff-1", IsStaff: true}))
	rec := doJSON(r, http.MethodGet, "/api/v1/users", "", staff)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "staff@example.com")
}

func TestUsersListRechecksStaffFlag(t *testing.T) {
	r, repo := newTestRouter(t)
	tm := auth.NewTokenManager("test-secret", "rsr", time.Hour)
	require.NoError(t, repo.Create(t.Context(), User{ID: "former-staff", Email: "former@example.com", IsActive: true}))
	require.NoError(t, repo.Create(t.Context(), User{ID: "disabled-staff", Email: "disabled@example.com", IsStaff: true}))

	// Both tokens were issued while the users still had staff rights.
	former, _ := tm.Generate(auth.Identity{UserID: "former-staff", Staff: true})
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/api/v1/users", "", former).Code)

	disabled, _ := tm.Generate(auth.Identity{UserID: "disabled-staff", Staff: true})
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/api/v1/users", "", disabled).Code)

	ghost, _ := tm.Generate(auth.Identity{UserID: "deleted-user", Staff: true})
	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/api/v1/users", "", ghost).Code)
}

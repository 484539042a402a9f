package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/karthik1704/rsr-v1/internal/shared/apperr"
	"github.com/karthik1704/rsr-v1/internal/shared/auth"
	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

const minPasswordLen = 8

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: time.Now}
}

// Signup registers an active password user.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	email := normalizeEmail(in.Email)
	var issues []apperr.FieldIssue
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		issues = append(issues, apperr.FieldIssue{Field: "email", Issue: "must be a valid email"})
	}
	if len(in.Password) < minPasswordLen {
		issues = append(issues, apperr.FieldIssue{Field: "password", Issue: "must be at least 8 characters"})
	}
	if in.Password != in.Password2 {
		issues = append(issues, apperr.FieldIssue{Field: "password2", Issue: "passwords do not match"})
	}
	if len(issues) > 0 {
		return User{}, apperr.Invalid("invalid signup", issues...)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Provider:     ProviderPassword,
		IsActive:     true,
	}
	if ref := strings.TrimSpace(in.ReferredBy); ref != "" {
		user.ReferredBy = &ref
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("user.signup", map[string]any{"user_id": user.ID})
	return s.Repo.GetByID(ctx, user.ID)
}

// Authenticate checks a password login and records the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return User{}, apperr.Unauthorized("incorrect email or password")
	}
	if err != nil {
		return User{}, err
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return User{}, apperr.Unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return User{}, apperr.Unauthorized("account is disabled")
	}
	now := s.now()
	if err := s.Repo.TouchLogin(ctx, user.ID, now); err != nil {
		return User{}, err
	}
	user.LastLogin = &now
	return user, nil
}

// EnsureExternal returns the user behind an OAuth identity, creating it on
// first login. An existing account with the same email is reused only when
// the provider has verified that email.
func (s *Service) EnsureExternal(ctx context.Context, id ExternalIdentity) (User, error) {
	if strings.TrimSpace(id.Subject) == "" || strings.TrimSpace(id.Email) == "" {
		return User{}, apperr.Validation("external identity requires subject and email")
	}
	user, err := s.Repo.GetByProvider(ctx, id.Provider, id.Subject)
	if errors.Is(err, apperr.ErrNotFound) {
		user, err = s.Repo.GetByEmail(ctx, normalizeEmail(id.Email))
		if err == nil && !id.EmailVerified {
			telemetry.Warn("user.link_refused", map[string]any{"user_id": user.ID, "provider": id.Provider})
			return User{}, apperr.Conflict("an account with this email already exists")
		}
	}
	if err == nil {
		if err := s.touch(ctx, &user); err != nil {
			return User{}, err
		}
		return user, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return User{}, err
	}

	first, last := splitName(id.Name)
	user = User{
		ID:          uuid.NewString(),
		Email:       normalizeEmail(id.Email),
		FirstName:   first,
		LastName:    last,
		Provider:    id.Provider,
		ProviderSub: id.Subject,
		PictureURL:  id.Picture,
		IsActive:    true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("user.signup", map[string]any{"user_id": user.ID, "provider": id.Provider})
	created, err := s.Repo.GetByID(ctx, user.ID)
	if err != nil {
		return User{}, err
	}
	if err := s.touch(ctx, &created); err != nil {
		return User{}, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, apperr.Unauthorized("missing identity")
	}
	return s.Repo.GetByID(ctx, userID)
}

// IsStaff reports whether the stored user currently has staff rights.
// Inactive users have none.
func (s *Service) IsStaff(ctx context.Context, userID string) (bool, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsActive && (user.IsStaff || user.IsSuperuser), nil
}

// List pages through all users. Callers must restrict it to staff.
func (s *Service) List(ctx context.Context, limit, offset int) ([]User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

func (s *Service) touch(ctx context.Context, user *User) error {
	now := s.now()
	if err := s.Repo.TouchLogin(ctx, user.ID, now); err != nil {
		return err
	}
	user.LastLogin = &now
	return nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

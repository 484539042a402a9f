package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/karthik1704/rsr-v1/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, provider, provider_sub,
  picture_url, referred_by, is_active, is_staff, is_superuser, expiry_date, date_joined, last_login,
  created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, password_hash, first_name, last_name, phone, provider, provider_sub,
  picture_url, referred_by, is_active, is_staff, is_superuser, date_joined, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Provider,
		nullableString(user.ProviderSub),
		nullableString(user.PictureURL),
		user.ReferredBy,
		user.IsActive,
		user.IsStaff,
		user.IsSuperuser,
	)
	if db.IsUniqueViolation(err, "users_email_key") {
		return emailTaken()
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 LIMIT 1`, userID)
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email)
}

func (r *PGRepo) GetByProvider(ctx context.Context, provider, subject string) (User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE provider = $1 AND provider_sub = $2 LIMIT 1`, provider, subject)
}

func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY date_joined, id LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

func (r *PGRepo) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1`, userID, at)
	return expectOne(res, err)
}

func (r *PGRepo) SetExpiry(ctx context.Context, userID string, expiry time.Time) error {
	return SetExpiryWith(ctx, r.DB, userID, expiry)
}

// SetExpiryWith writes the premium cutoff through q so callers can include
// it in their own transaction.
func SetExpiryWith(ctx context.Context, q db.Queryer, userID string, expiry time.Time) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET expiry_date = $2, updated_at = now() WHERE id = $1`, userID, expiry)
	return expectOne(res, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (User, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, userNotFound()
	}
	return user, err
}

func scanUser(row rowScanner) (User, error) {
	var (
		user        User
		providerSub sql.NullString
		pictureURL  sql.NullString
		referredBy  sql.NullString
		expiry      sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.Provider,
		&providerSub,
		&pictureURL,
		&referredBy,
		&user.IsActive,
		&user.IsStaff,
		&user.IsSuperuser,
		&expiry,
		&user.DateJoined,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.ProviderSub = providerSub.String
	user.PictureURL = pictureURL.String
	if referredBy.Valid {
		user.ReferredBy = &referredBy.String
	}
	if expiry.Valid {
		t := expiry.Time
		user.ExpiryDate = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return userNotFound()
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

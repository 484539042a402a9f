package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withOpen(t *testing.T, open func(name, dsn string) (*sql.DB, error)) {
	t.Helper()
	prev := openDB
	openDB = open
	t.Cleanup(func() { openDB = prev })
}

func mockOpen(name, dsn string) (*sql.DB, error) {
	db, _, err := sqlmock.New()
	return db, err
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "  ", PoolFor(ProfileServer))
	assert.Error(t, err)
}

func TestConnectSizesPool(t *testing.T) {
	withOpen(t, mockOpen)

	db, err := Connect(context.Background(), "ignored", Pool{MaxOpen: 3, MaxIdle: 1})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 3, db.Stats().MaxOpenConnections)
}

func TestConnectFailsWhenPingFails(t *testing.T) {
	withOpen(t, func(name, dsn string) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		return db, nil
	})

	_, err := Connect(context.Background(), "ignored", Pool{PingTimeout: time.Second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping database")
}

func TestOpenUsesProfilePool(t *testing.T) {
	withOpen(t, mockOpen)

	db, err := Open(context.Background(), "ignored", ProfileLambda)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, 2, db.Stats().MaxOpenConnections)
}

func TestDetectProfile(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	assert.Equal(t, ProfileServer, DetectProfile())

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "rsr-api")
	assert.Equal(t, ProfileLambda, DetectProfile())
}

func TestPoolForAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", " 3 ")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	assert.Equal(t, Pool{
		MaxOpen:     7,
		MaxIdle:     3,
		MaxLifetime: 20 * time.Minute,
		MaxIdleTime: 45 * time.Second,
		PingTimeout: time.Second,
	}, PoolFor(ProfileServer))
}

func TestPoolForIgnoresInvalidOverrides(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("DB_MAX_IDLE_CONNS", "-2")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	assert.Equal(t, profiles[ProfileMigrate], PoolFor(ProfileMigrate))
}

func TestPoolForUnknownProfileUsesServerPool(t *testing.T) {
	assert.Equal(t, profiles[ProfileServer], PoolFor(Profile("batch")))
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE resumes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = WithTx(context.Background(), database, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE resumes SET title = $1", "x")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = WithTx(context.Background(), database, func(tx *sql.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer database.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), database, func(tx *sql.Tx) error { panic("kaboom") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "resumes_user_id_key"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "resumes_user_id_key"))
	assert.False(t, IsUniqueViolation(err, "users_email_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

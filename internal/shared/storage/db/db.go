package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"github.com/karthik1704/rsr-v1/internal/shared/telemetry"
)

// Profile names a process shape. Each shape sizes its pool differently.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Pool sizes the database/sql connection pool. Zero fields keep the
// database/sql defaults.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

// A Lambda instance serves one request at a time, so it holds few
// connections and drops idle ones quickly.
var profiles = map[Profile]Pool{
	ProfileServer:  {MaxOpen: 10, MaxIdle: 5, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
	ProfileLambda:  {MaxOpen: 2, MaxIdle: 1, MaxLifetime: 15 * time.Minute, MaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second},
	ProfileMigrate: {MaxOpen: 1, MaxIdle: 1, MaxLifetime: time.Hour, MaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second},
}

var openDB = sql.Open

// DetectProfile returns ProfileLambda inside AWS Lambda and ProfileServer
// everywhere else.
func DetectProfile() Profile {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return ProfileLambda
	}
	return ProfileServer
}

// PoolFor returns the pool of profile with DB_* environment overrides applied.
// Unknown profiles get the server pool.
func PoolFor(profile Profile) Pool {
	pool, ok := profiles[profile]
	if !ok {
		pool = profiles[ProfileServer]
	}
	return pool.withEnv(os.LookupEnv)
}

type envSetting struct {
	key string
	set func(p *Pool, raw string) error
}

var envSettings = []envSetting{
	{"DB_MAX_OPEN_CONNS", intSetting(func(p *Pool, v int) { p.MaxOpen = v })},
	{"DB_MAX_IDLE_CONNS", intSetting(func(p *Pool, v int) { p.MaxIdle = v })},
	{"DB_CONN_MAX_LIFETIME", durationSetting(func(p *Pool, v time.Duration) { p.MaxLifetime = v })},
	{"DB_CONN_MAX_IDLE_TIME", durationSetting(func(p *Pool, v time.Duration) { p.MaxIdleTime = v })},
	{"DB_PING_TIMEOUT", durationSetting(func(p *Pool, v time.Duration) { p.PingTimeout = v })},
}

func (p Pool) withEnv(lookup func(string) (string, bool)) Pool {
	for _, s := range envSettings {
		raw, ok := lookup(s.key)
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			continue
		}
		if err := s.set(&p, raw); err != nil {
			telemetry.Warn("db.env_invalid", map[string]any{"key": s.key, "value": raw, "error": err})
		}
	}
	return p
}

func intSetting(assign func(*Pool, int)) func(*Pool, string) error {
	return func(p *Pool, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		if v < 0 {
			return errors.New("must not be negative")
		}
		assign(p, v)
		return nil
	}
}

func durationSetting(assign func(*Pool, time.Duration)) func(*Pool, string) error {
	return func(p *Pool, raw string) error {
		v, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		if v < 0 {
			return errors.New("must not be negative")
		}
		assign(p, v)
		return nil
	}
}

// Open connects with the pool of profile.
func Open(ctx context.Context, databaseURL string, profile Profile) (*sql.DB, error) {
	db, err := Connect(ctx, databaseURL, PoolFor(profile))
	if err != nil {
		return nil, err
	}
	telemetry.Info("db.connected", map[string]any{
		"profile":  string(profile),
		"max_open": db.Stats().MaxOpenConnections,
	})
	return db, nil
}

// Connect opens a pgx-backed *sql.DB sized by pool and pings it. The handle
// is closed again when the ping fails.
func Connect(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.apply(db)

	timeout := pool.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func (p Pool) apply(db *sql.DB) {
	if p.MaxOpen > 0 {
		db.SetMaxOpenConns(p.MaxOpen)
	}
	if p.MaxIdle > 0 {
		db.SetMaxIdleConns(p.MaxIdle)
	}
	if p.MaxLifetime > 0 {
		db.SetConnMaxLifetime(p.MaxLifetime)
	}
	if p.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

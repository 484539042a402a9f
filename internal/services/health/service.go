package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Timeout time.Duration
}

type Report struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
}

// NewService constructs a new health service. db may be nil when the app
// runs on in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{DB: db, Timeout: 2 * time.Second}
}

// Status reports whether the service can reach its database.
func (s *Service) Status(ctx context.Context) Report {
	if s.DB == nil {
		return Report{OK: true, Database: "memory"}
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		return Report{OK: false, Database: "down"}
	}
	return Report{OK: true, Database: "up"}
}

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestStatus(t *testing.T) {
	assert.Equal(t, Report{OK: true, Database: "memory"}, NewService(nil).Status(context.Background()))

	up := NewService(pingFunc(func(context.Context) error { return nil }))
	assert.Equal(t, Report{OK: true, Database: "up"}, up.Status(context.Background()))

	down := NewService(pingFunc(func(context.Context) error { return errors.New("refused") }))
	assert.Equal(t, Report{OK: false, Database: "down"}, down.Status(context.Background()))
}

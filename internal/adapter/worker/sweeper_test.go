package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepExpired(_ context.Context, _ time.Duration) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSweeper_RunsOnInterval(t *testing.T) {
	svc := &countingSweeper{err: errors.New("store down")}
	s := NewSweeper(svc, 10*time.Millisecond, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return svc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestSweeper_Disabled(t *testing.T) {
	svc := &countingSweeper{}
	s := NewSweeper(svc, 0, time.Hour, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, s.Run(ctx))
	assert.Equal(t, int32(0), svc.calls.Load())
}

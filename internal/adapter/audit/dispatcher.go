package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"go.uber.org/zap"
)

var (
	ErrQueueFull        = errors.New("audit queue is full")
	ErrDispatcherClosed = errors.New("audit dispatcher is stopped")
)

const drainTimeout = 5 * time.Second

// Dispatcher queues audit records and writes them to every sink from
// background workers. Record never blocks on a sink.
type Dispatcher struct {
	sinks   []port.AuditSink
	queue   chan domain.AuditRecord
	logger  *zap.Logger
	writeTO time.Duration

	// mu guards closed against concurrent Record calls.
	mu     sync.RWMutex
	closed bool
}

var _ port.AuditSink = (*Dispatcher)(nil)

func NewDispatcher(buffer int, logger *zap.Logger, sinks ...port.AuditSink) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan domain.AuditRecord, buffer),
		logger:  logger,
		writeTO: 3 * time.Second,
	}
}

// Record fails with ErrDispatcherClosed once Run has begun its final flush.
func (d *Dispatcher) Record(_ context.Context, rec domain.AuditRecord) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Error("audit record after shutdown",
			zap.String("order", string(rec.OrderID)), zap.String("id", rec.ID))
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- rec:
		return nil
	default:
		d.logger.Warn("audit record dropped",
			zap.String("order", string(rec.OrderID)), zap.String("id", rec.ID))
		return ErrQueueFull
	}
}

// Run drains the queue with workers until ctx is done, then flushes what is
// left within drainTimeout.
func (d *Dispatcher) Run(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	wg := sync.WaitGroup{}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case rec := <-d.queue:
					d.write(rec)
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	flush := time.NewTimer(drainTimeout)
	defer flush.Stop()
	for {
		select {
		case rec := <-d.queue:
			d.write(rec)
		case <-flush.C:
			d.logger.Warn("audit flush timed out", zap.Int("left", len(d.queue)))
			return nil
		default:
			d.logger.Debug("audit dispatcher finished")
			return nil
		}
	}
}

func (d *Dispatcher) write(rec domain.AuditRecord) {
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.writeTO)
		err := sink.Record(ctx, rec)
		cancel()
		if err != nil {
			d.logger.Error("audit sink write failed",
				zap.String("order", string(rec.OrderID)),
				zap.String("id", rec.ID),
				zap.Error(err))
		}
	}
}

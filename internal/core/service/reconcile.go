package service

import (
	"context"
	"errors"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine applies gateway events to orders. Every transition is a
// compare-and-set on PaymentStatusPending performed by the store, so
// concurrent or duplicate deliveries for one order produce at most one change.
type Engine struct {
	repo     port.OrderStore
	audit    port.AuditSink
	metrics  port.Metrics
	statuses domain.FulfillmentStatuses
	now      func() time.Time
	logger   *zap.Logger
}

func NewEngine(repo port.OrderStore, audit port.AuditSink, metrics port.Metrics,
	statuses domain.FulfillmentStatuses, logger *zap.Logger) *Engine {
	return &Engine{
		repo:     repo,
		audit:    audit,
		metrics:  metrics,
		statuses: statuses,
		now:      time.Now,
		logger:   logger,
	}
}

// changeFor maps an event kind to the transition out of pending.
// ok is false for kinds that never change an order.
func (e *Engine) changeFor(event domain.GatewayEvent) (domain.StatusChange, bool) {
	switch event.Kind {
	case domain.EventPaymentSucceeded:
		paid := e.statuses.Paid
		change := domain.StatusChange{
			To:                  domain.PaymentStatusPaid,
			FulfillmentStatusID: &paid,
		}
		// poll confirmations keep the provisional reference
		if event.TransactionID != "" {
			ref := event.TransactionID
			change.PaymentRef = &ref
		}
		return change, true
	case domain.EventPaymentFailed, domain.EventSessionExpired:
		return domain.StatusChange{To: domain.PaymentStatusFailed}, true
	case domain.EventCancelRequested:
		cancelled := e.statuses.Cancelled
		return domain.StatusChange{
			To:                  domain.PaymentStatusCancelled,
			FulfillmentStatusID: &cancelled,
		}, true
	default:
		return domain.StatusChange{}, false
	}
}

func (e *Engine) Apply(ctx context.Context, event domain.GatewayEvent) (domain.ReconcileResult, error) {
	log := e.logger.With(
		zap.String("order", string(event.OrderID)),
		zap.String("source", string(event.Source)),
		zap.String("kind", string(event.Kind)),
		zap.String("key", event.IdempotencyKey()),
	)

	change, ok := e.changeFor(event)
	if !ok {
		log.Debug("ignored: unrelated event")
		e.observe(event, domain.OutcomeIgnoredUnrelated)
		return domain.ReconcileResult{Outcome: domain.OutcomeIgnoredUnrelated}, nil
	}
	if event.OrderID == "" {
		return domain.ReconcileResult{Outcome: domain.OutcomeRejected}, domain.ErrBadRequest
	}

	order, changed, err := e.repo.TransitionPending(ctx, event.OrderID, change)
	if errors.Is(err, domain.ErrOrderNotFound) {
		e.observe(event, domain.OutcomeUnknownOrder)
		return domain.ReconcileResult{Outcome: domain.OutcomeUnknownOrder}, err
	}
	if err != nil {
		log.Error("transition failed", zap.Error(err))
		e.observe(event, domain.OutcomeRejected)
		return domain.ReconcileResult{Outcome: domain.OutcomeRejected}, err
	}

	if !changed {
		log.Info("ignored: already terminal", zap.String("status", string(order.PaymentStatus)))
		e.observe(event, domain.OutcomeIgnoredTerminal)
		return domain.ReconcileResult{Outcome: domain.OutcomeIgnoredTerminal, Order: order}, nil
	}

	log.Info("payment status changed", zap.String("status", string(order.PaymentStatus)))
	e.observe(event, domain.OutcomeApplied)
	e.record(ctx, event, order, log)

	return domain.ReconcileResult{Outcome: domain.OutcomeApplied, Order: order}, nil
}

// record never fails the transition; sink errors are logged and dropped.
func (e *Engine) record(ctx context.Context, event domain.GatewayEvent, order *domain.Order, log *zap.Logger) {
	if e.audit == nil {
		return
	}
	rec := domain.AuditRecord{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		From:          domain.PaymentStatusPending,
		To:            order.PaymentStatus,
		Source:        event.Source,
		Kind:          event.Kind,
		TransactionID: event.TransactionID,
		RecordedAt:    e.now(),
	}
	if order.PaymentRef != nil {
		rec.PaymentRef = *order.PaymentRef
	}
	if err := e.audit.Record(ctx, rec); err != nil {
		log.Warn("audit sink failed", zap.Error(err))
	}
}

func (e *Engine) observe(event domain.GatewayEvent, outcome domain.Outcome) {
	if e.metrics != nil {
		e.metrics.ObserveReconcile(event.Source, event.Kind, outcome)
	}
}

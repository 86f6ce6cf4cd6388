package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

type Service struct {
	repo     port.OrderStore
	engine   *Engine
	issuer   *Issuer
	push     port.Gateway
	poll     port.Gateway
	statuses domain.FulfillmentStatuses
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(repo port.OrderStore, push port.Gateway, poll port.Gateway,
	audit port.AuditSink, metrics port.Metrics,
	statuses domain.FulfillmentStatuses, logger *zap.Logger) (*Service, error) {
	if repo == nil || push == nil || poll == nil {
		return nil, errors.New("order store and both gateways are required")
	}
	return &Service{
		repo:     repo,
		engine:   NewEngine(repo, audit, metrics, statuses, logger.Named("Engine")),
		issuer:   NewIssuer(repo, push, poll, logger.Named("Issuer")),
		push:     push,
		poll:     poll,
		statuses: statuses,
		now:      time.Now,
		logger:   logger,
	}, nil
}

func (s *Service) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order.ID == "" || len(order.ID) > domain.MaxOrderIDLength {
		return nil, domain.ErrBadRequest
	}
	if order.Amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	now := s.now()
	order.PaymentStatus = domain.PaymentStatusPending
	order.FulfillmentStatusID = s.statuses.AwaitingPayment
	order.PaymentRef = nil
	order.CreatedAt = now
	order.UpdatedAt = now

	newOrder, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		if !errors.Is(err, domain.ErrConflictingData) {
			s.logger.Error("Create order", zap.Error(err))
		}
		return nil, err
	}
	return newOrder, nil
}

func (s *Service) IssueReference(ctx context.Context, id domain.OrderID,
	method domain.PaymentMethod) (*domain.Payable, error) {
	return s.issuer.Issue(ctx, id, method)
}

// PaymentStatus never mutates the order.
func (s *Service) PaymentStatus(ctx context.Context, id domain.OrderID) (bool, error) {
	order, err := s.repo.ReadOrder(ctx, id)
	if err != nil {
		return false, err
	}
	return order.PaymentStatus == domain.PaymentStatusPaid, nil
}

func (s *Service) SimulateSuccess(ctx context.Context, id domain.OrderID) (domain.ReconcileResult, error) {
	event, err := s.poll.Ingest(ctx, port.RawInput{OrderID: id})
	if err != nil {
		return domain.ReconcileResult{Outcome: domain.OutcomeRejected}, err
	}
	return s.engine.Apply(ctx, event)
}

// HandleWebhook verifies and maps a push delivery, then reconciles it.
// Deliveries for unknown orders are acknowledged with OutcomeUnknownOrder so
// the processor stops retrying them.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (domain.ReconcileResult, error) {
	event, err := s.push.Ingest(ctx, port.RawInput{Body: body, Signature: signature})
	if err != nil {
		s.logger.Warn("webhook rejected", zap.Error(err), zap.Int("size", len(body)))
		return domain.ReconcileResult{Outcome: domain.OutcomeRejected}, err
	}

	result, err := s.engine.Apply(ctx, event)
	if errors.Is(err, domain.ErrOrderNotFound) {
		s.logger.Warn("webhook for unknown order",
			zap.String("order", string(event.OrderID)),
			zap.String("kind", string(event.Kind)),
			zap.String("txn", event.TransactionID))
		return domain.ReconcileResult{Outcome: domain.OutcomeUnknownOrder}, nil
	}
	return result, err
}

func (s *Service) Cancel(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	result, err := s.engine.Apply(ctx, domain.GatewayEvent{
		Source:  domain.SourceAdmin,
		Kind:    domain.EventCancelRequested,
		OrderID: id,
	})
	if err != nil {
		return nil, err
	}
	if result.Outcome != domain.OutcomeApplied {
		return result.Order, domain.ErrAlreadyTerminal
	}
	return result.Order, nil
}

// SweepExpired fails orders that stayed pending longer than olderThan.
// Live events racing the sweep are resolved by the same compare-and-set.
func (s *Service) SweepExpired(ctx context.Context, olderThan time.Duration) (int, error) {
	orders, err := s.repo.ListPendingBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("list pending orders: %w", err)
	}

	swept := 0
	for _, o := range orders {
		result, err := s.engine.Apply(ctx, domain.GatewayEvent{
			Source:  domain.SourcePoll,
			Kind:    domain.EventSessionExpired,
			OrderID: o.ID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				continue
			}
			return swept, err
		}
		if result.Outcome == domain.OutcomeApplied {
			swept++
		}
	}
	return swept, nil
}

// ParseAmount accepts decimal strings such as "500" or "12.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return decimal.Zero, domain.ErrBadRequest
	}
	if d.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

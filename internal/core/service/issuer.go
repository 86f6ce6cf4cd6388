package service

import (
	"context"
	"errors"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"go.uber.org/zap"
)

// maxReferenceAttempts bounds how often Issue draws a new reference when the
// previous one is held by another pending order.
const maxReferenceAttempts = 5

// Issuer hands out payable references. It only touches the provisional
// payment reference, never the payment status.
type Issuer struct {
	repo     port.OrderStore
	gateways map[domain.PaymentMethod]port.Gateway
	logger   *zap.Logger
}

func NewIssuer(repo port.OrderStore, push port.Gateway, poll port.Gateway, logger *zap.Logger) *Issuer {
	return &Issuer{
		repo: repo,
		gateways: map[domain.PaymentMethod]port.Gateway{
			domain.PaymentMethodCheckout: push,
			domain.PaymentMethodTransfer: poll,
		},
		logger: logger,
	}
}

// Issue returns a fresh payable on every call. When only the payload encoder
// failed, the payable is still returned, marked unusable, together with
// domain.ErrPayloadGenerationFailed.
func (i *Issuer) Issue(ctx context.Context, id domain.OrderID, method domain.PaymentMethod) (*domain.Payable, error) {
	if method == "" {
		method = domain.PaymentMethodTransfer
	}
	gw, ok := i.gateways[method]
	if !ok {
		return nil, domain.ErrUnsupportedMethod
	}

	order, err := i.repo.ReadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus.IsTerminal() {
		return nil, domain.ErrAlreadyTerminal
	}
	if order.Amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	for attempt := 1; ; attempt++ {
		payable, payloadErr := gw.CreatePayable(ctx, order)
		if payloadErr != nil && (payable == nil || !errors.Is(payloadErr, domain.ErrPayloadGenerationFailed)) {
			i.logger.Error("create payable", zap.String("order", string(id)), zap.Error(payloadErr))
			return nil, payloadErr
		}
		if payloadErr != nil {
			i.logger.Warn("payable payload degraded",
				zap.String("order", string(id)), zap.Error(payloadErr))
		}

		_, err := i.repo.SetProvisionalRef(ctx, id, payable.Reference)
		if errors.Is(err, domain.ErrConflictingData) && attempt < maxReferenceAttempts {
			i.logger.Warn("reference taken, reissuing",
				zap.String("order", string(id)), zap.String("reference", payable.Reference))
			continue
		}
		if err != nil {
			return nil, err
		}

		return payable, payloadErr
	}
}

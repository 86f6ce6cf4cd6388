// Package push is the gateway variant for processors that confirm payments
// with signed webhooks.
package push

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/signature"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/google/uuid"
)

// MetadataOrderKey is the processor metadata key carrying the order id.
const MetadataOrderKey = "orderId"

var eventKinds = map[string]domain.EventKind{
	"checkout.session.completed":               domain.EventPaymentSucceeded,
	"checkout.session.async_payment_succeeded": domain.EventPaymentSucceeded,
	"payment_intent.succeeded":                 domain.EventPaymentSucceeded,
	"checkout.session.async_payment_failed":    domain.EventPaymentFailed,
	"payment_intent.payment_failed":            domain.EventPaymentFailed,
	"checkout.session.expired":                 domain.EventSessionExpired,
}

type Gateway struct {
	verifier    *signature.Verifier
	checkoutURL string
	ttl         time.Duration
	now         func() time.Time
}

func New(verifier *signature.Verifier, checkoutBaseURL string, ttl time.Duration) (*Gateway, error) {
	if verifier == nil {
		return nil, fmt.Errorf("push gateway needs a signature verifier")
	}
	if _, err := url.Parse(checkoutBaseURL); err != nil {
		return nil, fmt.Errorf("bad checkout url: %w", err)
	}
	return &Gateway{
		verifier:    verifier,
		checkoutURL: strings.TrimRight(checkoutBaseURL, "/"),
		ttl:         ttl,
		now:         time.Now,
	}, nil
}

var _ port.Gateway = (*Gateway)(nil)

// CreatePayable opens a hosted checkout session reference for the order.
func (g *Gateway) CreatePayable(_ context.Context, order *domain.Order) (*domain.Payable, error) {
	session := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &domain.Payable{
		OrderID:       order.ID,
		Reference:     session,
		Payload:       g.checkoutURL + "/" + session + "?" + url.Values{MetadataOrderKey: {string(order.ID)}}.Encode(),
		PayloadUsable: true,
		Amount:        order.Amount,
		ExpiresAt:     g.now().Add(g.ttl),
		ExpiryMinutes: int(g.ttl / time.Minute),
	}, nil
}

func (g *Gateway) Ingest(_ context.Context, raw port.RawInput) (domain.GatewayEvent, error) {
	event, err := g.verifier.Verify(raw.Body, raw.Signature)
	if err != nil {
		return domain.GatewayEvent{}, err
	}
	obj := event.Data.Object

	kind, ok := eventKinds[event.Type]
	if !ok {
		kind = domain.EventUnrelated
	}
	// an unpaid completed session settles later through an async event
	if event.Type == "checkout.session.completed" && obj.PaymentStatus != "" && obj.PaymentStatus != "paid" {
		kind = domain.EventUnrelated
	}

	orderID := domain.OrderID(obj.Metadata[MetadataOrderKey])
	if kind != domain.EventUnrelated && orderID == "" {
		return domain.GatewayEvent{}, fmt.Errorf("%w: %s without order metadata", domain.ErrBadRequest, event.Type)
	}

	txn := obj.PaymentIntent
	if txn == "" {
		txn = obj.ID
	}

	return domain.GatewayEvent{
		Source:        domain.SourcePush,
		Kind:          kind,
		OrderID:       orderID,
		TransactionID: txn,
	}, nil
}

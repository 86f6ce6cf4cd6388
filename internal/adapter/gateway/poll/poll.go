// Package poll is the gateway variant for out-of-band payment methods such
// as bank or QR transfers, where nothing calls us back and success is
// confirmed by a trusted caller.
package poll

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
)

type Gateway struct {
	encoder port.PayloadEncoder
	ttl     time.Duration
	now     func() time.Time
	newRef  func() string
}

func New(encoder port.PayloadEncoder, ttl time.Duration) *Gateway {
	return &Gateway{
		encoder: encoder,
		ttl:     ttl,
		now:     time.Now,
		newRef:  newReference,
	}
}

var _ port.Gateway = (*Gateway)(nil)

// newReference draws from a small space. The store rejects a reference held
// by another pending order and the issuer draws again.
func newReference() string {
	return fmt.Sprintf("REF-%06d", rand.IntN(1_000_000))
}

// TransferContent is the text encoded into the payable payload.
func TransferContent(ref string, order *domain.Order) string {
	return fmt.Sprintf("PAY|%s|%s|%s", ref, order.ID, order.Amount.String())
}

// CreatePayable issues a fresh reference each call. If the encoder fails the
// payable carries the plain transfer text and is marked unusable.
func (g *Gateway) CreatePayable(_ context.Context, order *domain.Order) (*domain.Payable, error) {
	ref := g.newRef()
	content := TransferContent(ref, order)

	payable := &domain.Payable{
		OrderID:       order.ID,
		Reference:     ref,
		Amount:        order.Amount,
		ExpiresAt:     g.now().Add(g.ttl),
		ExpiryMinutes: int(g.ttl / time.Minute),
	}

	payload, err := g.encoder.Encode(content)
	if err != nil {
		payable.Payload = content
		return payable, fmt.Errorf("%w: %v", domain.ErrPayloadGenerationFailed, err)
	}
	payable.Payload = payload
	payable.PayloadUsable = true
	return payable, nil
}

// Ingest synthesizes a success event for an explicit confirmation. Poll
// events carry no processor transaction id.
func (g *Gateway) Ingest(_ context.Context, raw port.RawInput) (domain.GatewayEvent, error) {
	if raw.OrderID == "" {
		return domain.GatewayEvent{}, domain.ErrBadRequest
	}
	return domain.GatewayEvent{
		Source:  domain.SourcePoll,
		Kind:    domain.EventPaymentSucceeded,
		OrderID: raw.OrderID,
	}, nil
}

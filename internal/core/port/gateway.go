package port

import (
	"context"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
)

// RawInput is whatever a gateway variant needs to synthesize an event:
// a signed body for push deliveries, an order id for poll confirmations.
type RawInput struct {
	Body      []byte
	Signature string
	OrderID   domain.OrderID
}

//go:generate mockgen -source=gateway.go -destination=mock/gateway.go -package=mock
type Gateway interface {
	CreatePayable(ctx context.Context, order *domain.Order) (*domain.Payable, error)
	Ingest(ctx context.Context, raw RawInput) (domain.GatewayEvent, error)
}

type PayloadEncoder interface {
	Encode(content string) (string, error)
}

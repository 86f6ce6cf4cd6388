package port

import (
	"context"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
)

type Service interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	IssueReference(ctx context.Context, id domain.OrderID, method domain.PaymentMethod) (*domain.Payable, error)
	PaymentStatus(ctx context.Context, id domain.OrderID) (bool, error)

	SimulateSuccess(ctx context.Context, id domain.OrderID) (domain.ReconcileResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (domain.ReconcileResult, error)
	Cancel(ctx context.Context, id domain.OrderID) (*domain.Order, error)

	SweepExpired(ctx context.Context, olderThan time.Duration) (int, error)
}

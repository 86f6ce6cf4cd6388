package port

import (
	"context"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock
type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error)
	// SetProvisionalRef stores ref on a pending order. Terminal orders are
	// returned unchanged with domain.ErrAlreadyTerminal.
	SetProvisionalRef(ctx context.Context, id domain.OrderID, ref string) (*domain.Order, error)
	// TransitionPending applies change only if the order is still pending.
	// changed is false when the order was already terminal.
	TransitionPending(ctx context.Context, id domain.OrderID,
		change domain.StatusChange) (order *domain.Order, changed bool, err error)
	ListPendingBefore(ctx context.Context, before time.Time) ([]*domain.Order, error)
}

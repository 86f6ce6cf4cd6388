package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type PaymentMethod string

const (
	// PaymentMethodTransfer is a bank or QR transfer confirmed by polling or manually.
	PaymentMethodTransfer PaymentMethod = "transfer"
	// PaymentMethodCheckout is a hosted processor checkout confirmed by webhook.
	PaymentMethodCheckout PaymentMethod = "checkout"
)

// Payable is what a client needs to pay an order.
type Payable struct {
	OrderID       OrderID
	Reference     string
	Payload       string
	PayloadUsable bool
	Amount        decimal.Decimal
	ExpiresAt     time.Time
	ExpiryMinutes int
}

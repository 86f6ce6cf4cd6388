package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type OrderID string

// MaxOrderIDLength matches the width of the orders.id column.
const MaxOrderIDLength = 64

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled || s == PaymentStatusFailed
}

type Order struct {
	ID                  OrderID
	Amount              decimal.Decimal
	PaymentStatus       PaymentStatus
	FulfillmentStatusID int64
	PaymentRef          *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FulfillmentStatuses holds the ids of the external fulfillment vocabulary
// entries moved in lockstep with the payment status.
type FulfillmentStatuses struct {
	AwaitingPayment int64
	Paid            int64
	Cancelled       int64
}

// StatusChange describes a transition out of PaymentStatusPending.
// Nil fields are left as stored.
type StatusChange struct {
	To                  PaymentStatus
	FulfillmentStatusID *int64
	PaymentRef          *string
}

package domain

import "time"

type SourceType string

const (
	SourcePush  SourceType = "push"
	SourcePoll  SourceType = "poll"
	SourceAdmin SourceType = "admin"
)

type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventSessionExpired   EventKind = "session_expired"
	EventCancelRequested  EventKind = "cancel_requested"
	EventUnrelated        EventKind = "unrelated"
)

// GatewayEvent is the normalized shape produced by every gateway variant.
type GatewayEvent struct {
	Source        SourceType
	Kind          EventKind
	OrderID       OrderID
	TransactionID string
}

// IdempotencyKey collapses duplicate deliveries of the same real-world event.
func (e GatewayEvent) IdempotencyKey() string {
	if e.TransactionID != "" {
		return string(e.Source) + ":" + e.TransactionID
	}
	return string(e.Source) + ":" + string(e.OrderID) + ":" + string(e.Kind)
}

type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeIgnoredTerminal  Outcome = "ignored_terminal"
	OutcomeIgnoredUnrelated Outcome = "ignored_unrelated"
	OutcomeUnknownOrder     Outcome = "unknown_order"
	OutcomeRejected         Outcome = "rejected"
)

type ReconcileResult struct {
	Outcome Outcome
	Order   *Order
}

// AuditRecord is appended once per accepted transition.
type AuditRecord struct {
	ID            string
	OrderID       OrderID
	From          PaymentStatus
	To            PaymentStatus
	Source        SourceType
	Kind          EventKind
	TransactionID string
	PaymentRef    string
	RecordedAt    time.Time
}

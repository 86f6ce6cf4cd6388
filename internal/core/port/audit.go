package port

import (
	"context"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
)

//go:generate mockgen -source=audit.go -destination=mock/audit.go -package=mock
type AuditSink interface {
	Record(ctx context.Context, record domain.AuditRecord) error
}

type Metrics interface {
	ObserveReconcile(source domain.SourceType, kind domain.EventKind, outcome domain.Outcome)
}

type AuditReader interface {
	AuditTrail(ctx context.Context, id domain.OrderID) ([]domain.AuditRecord, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/paymentrecon/internal/adapter/storage"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var orderColumns = []string{
	"id", "amount", "payment_status", "fulfillment_status_id", "payment_ref", "created_at", "updated_at",
}

type Repository struct {
	db  *storage.DB
	now func() time.Time
}

var (
	_ port.OrderStore = (*Repository)(nil)
	_ port.AuditSink  = (*Repository)(nil)
)

func NewRepository(db *storage.DB) (*Repository, error) {
	return &Repository{db: db, now: time.Now}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.Amount,
		&order.PaymentStatus,
		&order.FulfillmentStatusID,
		&order.PaymentRef,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (or *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	statement := or.db.QueryBuilder.Insert("orders").
		Columns(orderColumns...).
		Values(order.ID, order.Amount, order.PaymentStatus, order.FulfillmentStatusID,
			order.PaymentRef, order.CreatedAt, order.UpdatedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	_, err = or.db.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return nil, domain.ErrConflictingData
			case pgerrcode.StringDataRightTruncationDataException:
				return nil, domain.ErrBadRequest
			}
		}
		return nil, unavailable(err)
	}
	return order, nil
}

func (or *Repository) ReadOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(or.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, unavailable(err)
	}
	return order, nil
}

// updatePending runs an UPDATE guarded by payment_status = PENDING. ok is
// false when no pending row matched.
func (or *Repository) updatePending(ctx context.Context, id domain.OrderID,
	statement sq.UpdateBuilder) (order *domain.Order, ok bool, err error) {
	sql, args, err := statement.
		Set("updated_at", or.now()).
		Where(sq.Eq{"id": id, "payment_status": domain.PaymentStatusPending}).
		Suffix("RETURNING " + strings.Join(orderColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	order, err = scanOrder(or.db.QueryRow(ctx, sql, args...))
	if err == nil {
		return order, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		// orders_pending_payment_ref_idx: another pending order holds the reference
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, false, domain.ErrConflictingData
		}
		return nil, false, unavailable(err)
	}

	// either missing or already settled
	order, err = or.ReadOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return order, false, nil
}

func (or *Repository) SetProvisionalRef(ctx context.Context, id domain.OrderID, ref string) (*domain.Order, error) {
	order, ok, err := or.updatePending(ctx, id,
		or.db.QueryBuilder.Update("orders").Set("payment_ref", ref))
	if err != nil {
		return nil, err
	}
	if !ok {
		return order, domain.ErrAlreadyTerminal
	}
	return order, nil
}

func (or *Repository) TransitionPending(ctx context.Context, id domain.OrderID,
	change domain.StatusChange) (*domain.Order, bool, error) {
	statement := or.db.QueryBuilder.Update("orders").Set("payment_status", change.To)
	if change.FulfillmentStatusID != nil {
		statement = statement.Set("fulfillment_status_id", *change.FulfillmentStatusID)
	}
	if change.PaymentRef != nil {
		statement = statement.Set("payment_ref", *change.PaymentRef)
	}
	return or.updatePending(ctx, id, statement)
}

func (or *Repository) ListPendingBefore(ctx context.Context, before time.Time) ([]*domain.Order, error) {
	statement := or.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"payment_status": domain.PaymentStatusPending}).
		Where(sq.Lt{"created_at": before}).
		OrderBy("created_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := or.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return list, nil
}

func (or *Repository) Record(ctx context.Context, rec domain.AuditRecord) error {
	statement := or.db.QueryBuilder.Insert("payment_audit").
		Columns("id", "order_id", "from_status", "to_status", "source", "kind",
			"transaction_id", "payment_ref", "recorded_at").
		Values(rec.ID, rec.OrderID, rec.From, rec.To, rec.Source, rec.Kind,
			rec.TransactionID, rec.PaymentRef, rec.RecordedAt)

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	if _, err := or.db.Exec(ctx, sql, args...); err != nil {
		return unavailable(err)
	}
	return nil
}

func (or *Repository) AuditTrail(ctx context.Context, id domain.OrderID) ([]domain.AuditRecord, error) {
	statement := or.db.QueryBuilder.
		Select("id", "order_id", "from_status", "to_status", "source", "kind",
			"transaction_id", "payment_ref", "recorded_at").
		From("payment_audit").
		Where(sq.Eq{"order_id": id}).
		OrderBy("recorded_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := or.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer rows.Close()

	list := make([]domain.AuditRecord, 0)
	for rows.Next() {
		rec := domain.AuditRecord{}
		err := rows.Scan(&rec.ID, &rec.OrderID, &rec.From, &rec.To, &rec.Source, &rec.Kind,
			&rec.TransactionID, &rec.PaymentRef, &rec.RecordedAt)
		if err != nil {
			return nil, unavailable(err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return list, nil
}

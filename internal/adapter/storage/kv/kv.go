// Package kv is an embedded BoltDB order store for single-node deployments
// and tests. Bolt serializes write transactions, so the read-check-write in
// TransitionPending is atomic without extra locking.
package kv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/govalues/decimal"
)

var (
	ordersBucket = []byte("orders")
	auditBucket  = []byte("payment_audit")
	// refsBucket maps the provisional reference of each pending order to its id.
	refsBucket = []byte("pending_refs")
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

var (
	_ port.OrderStore = (*Store)(nil)
	_ port.AuditSink  = (*Store)(nil)
)

// orderRecord keeps the amount as text so it round-trips exactly.
type orderRecord struct {
	ID                  string    `json:"id"`
	Amount              string    `json:"amount"`
	PaymentStatus       string    `json:"payment_status"`
	FulfillmentStatusID int64     `json:"fulfillment_status_id"`
	PaymentRef          *string   `json:"payment_ref,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{ordersBucket, auditBucket, refsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toRecord(o *domain.Order) orderRecord {
	return orderRecord{
		ID:                  string(o.ID),
		Amount:              o.Amount.String(),
		PaymentStatus:       string(o.PaymentStatus),
		FulfillmentStatusID: o.FulfillmentStatusID,
		PaymentRef:          o.PaymentRef,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

func (r orderRecord) order() (*domain.Order, error) {
	amount, err := decimal.Parse(r.Amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q: %w", r.Amount, err)
	}
	return &domain.Order{
		ID:                  domain.OrderID(r.ID),
		Amount:              amount,
		PaymentStatus:       domain.PaymentStatus(r.PaymentStatus),
		FulfillmentStatusID: r.FulfillmentStatusID,
		PaymentRef:          r.PaymentRef,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}

// passthrough keeps domain errors and marks everything else unavailable.
func passthrough(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrConflictingData),
		errors.Is(err, domain.ErrAlreadyTerminal):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}

func getOrder(b *bolt.Bucket, id domain.OrderID) (*domain.Order, error) {
	data := b.Get([]byte(id))
	if data == nil {
		return nil, domain.ErrOrderNotFound
	}
	var rec orderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return rec.order()
}

func putOrder(b *bolt.Bucket, o *domain.Order) error {
	data, err := json.Marshal(toRecord(o))
	if err != nil {
		return err
	}
	return b.Put([]byte(o.ID), data)
}

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ordersBucket)
		if b.Get([]byte(order.ID)) != nil {
			return domain.ErrConflictingData
		}
		return putOrder(b, order)
	})
	if err != nil {
		return nil, passthrough(err)
	}
	return order, nil
}

func (s *Store) ReadOrder(ctx context.Context, id domain.OrderID) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var order *domain.Order
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		order, err = getOrder(tx.Bucket(ordersBucket), id)
		return err
	})
	if err != nil {
		return nil, passthrough(err)
	}
	return order, nil
}

// updatePending mutates the order with fn only while it is pending. fn runs
// inside the write transaction and may fail it.
func (s *Store) updatePending(ctx context.Context, id domain.OrderID,
	fn func(tx *bolt.Tx, o *domain.Order) error) (*domain.Order, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var order *domain.Order
	changed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ordersBucket)
		var err error
		order, err = getOrder(b, id)
		if err != nil {
			return err
		}
		if order.PaymentStatus != domain.PaymentStatusPending {
			return nil
		}
		if err := fn(tx, order); err != nil {
			return err
		}
		order.UpdatedAt = s.now()
		changed = true
		return putOrder(b, order)
	})
	if err != nil {
		return nil, false, passthrough(err)
	}
	return order, changed, nil
}

// releaseRef drops the index entry of o's current reference if o owns it.
func releaseRef(refs *bolt.Bucket, o *domain.Order) error {
	if o.PaymentRef == nil {
		return nil
	}
	key := []byte(*o.PaymentRef)
	if string(refs.Get(key)) != string(o.ID) {
		return nil
	}
	return refs.Delete(key)
}

// SetProvisionalRef fails with domain.ErrConflictingData when ref already
// belongs to another pending order.
func (s *Store) SetProvisionalRef(ctx context.Context, id domain.OrderID, ref string) (*domain.Order, error) {
	order, changed, err := s.updatePending(ctx, id, func(tx *bolt.Tx, o *domain.Order) error {
		refs := tx.Bucket(refsBucket)
		if owner := refs.Get([]byte(ref)); owner != nil && string(owner) != string(o.ID) {
			return fmt.Errorf("%w: reference %s is held by order %s", domain.ErrConflictingData, ref, owner)
		}
		if err := releaseRef(refs, o); err != nil {
			return err
		}
		o.PaymentRef = &ref
		return refs.Put([]byte(ref), []byte(o.ID))
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, domain.ErrAlreadyTerminal
	}
	return order, nil
}

func (s *Store) TransitionPending(ctx context.Context, id domain.OrderID,
	change domain.StatusChange) (*domain.Order, bool, error) {
	return s.updatePending(ctx, id, func(tx *bolt.Tx, o *domain.Order) error {
		// the order leaves pending, so its reference is free again
		if err := releaseRef(tx.Bucket(refsBucket), o); err != nil {
			return err
		}
		o.PaymentStatus = change.To
		if change.FulfillmentStatusID != nil {
			o.FulfillmentStatusID = *change.FulfillmentStatusID
		}
		if change.PaymentRef != nil {
			ref := *change.PaymentRef
			o.PaymentRef = &ref
		}
		return nil
	})
}

func (s *Store) ListPendingBefore(ctx context.Context, before time.Time) ([]*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]*domain.Order, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(ordersBucket).ForEach(func(_, v []byte) error {
			var rec orderRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.PaymentStatus != string(domain.PaymentStatusPending) || !rec.CreatedAt.Before(before) {
				return nil
			}
			o, err := rec.order()
			if err != nil {
				return err
			}
			list = append(list, o)
			return nil
		})
	})
	if err != nil {
		return nil, passthrough(err)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// Record appends rec under a monotonically increasing key.
func (s *Store) Record(ctx context.Context, rec domain.AuditRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(auditBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
	return passthrough(err)
}

func (s *Store) AuditTrail(ctx context.Context, id domain.OrderID) ([]domain.AuditRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	list := make([]domain.AuditRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(auditBucket).ForEach(func(_, v []byte) error {
			var rec domain.AuditRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			if rec.OrderID == id {
				list = append(list, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, passthrough(err)
	}
	return list, nil
}

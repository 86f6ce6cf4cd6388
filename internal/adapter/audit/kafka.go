package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// batchTimeout caps how long a synchronous write waits for a batch to fill.
// A dispatcher worker writes one record per call.
const batchTimeout = 10 * time.Millisecond

// KafkaSink publishes accepted transitions for downstream notification.
type KafkaSink struct {
	writer messageWriter
}

var _ port.AuditSink = (*KafkaSink)(nil)

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka sink needs brokers and a topic")
	}
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: batchTimeout,
	}}, nil
}

type auditMessage struct {
	ID            string `json:"id"`
	OrderID       string `json:"orderId"`
	From          string `json:"from"`
	To            string `json:"to"`
	Source        string `json:"source"`
	Kind          string `json:"kind"`
	TransactionID string `json:"transactionId,omitempty"`
	PaymentRef    string `json:"paymentRef,omitempty"`
	RecordedAt    string `json:"recordedAt"`
}

func (k *KafkaSink) Record(ctx context.Context, rec domain.AuditRecord) error {
	value, err := json.Marshal(auditMessage{
		ID:            rec.ID,
		OrderID:       string(rec.OrderID),
		From:          string(rec.From),
		To:            string(rec.To),
		Source:        string(rec.Source),
		Kind:          string(rec.Kind),
		TransactionID: rec.TransactionID,
		PaymentRef:    rec.PaymentRef,
		RecordedAt:    rec.RecordedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	// keyed by order so one order's records stay on one partition
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.OrderID),
		Value: value,
	})
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

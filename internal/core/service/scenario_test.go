package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/poll"
	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/push"
	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/signature"
	"github.com/MikeRez0/paymentrecon/internal/adapter/qr"
	"github.com/MikeRez0/paymentrecon/internal/adapter/storage/kv"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port/mock"
	"github.com/MikeRez0/paymentrecon/internal/core/service"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "whsec_test"

type testEnv struct {
	store *kv.Store
	svc   *service.Service
}

func newTestEnv(t *testing.T, encoder *mock.MockPayloadEncoder) *testEnv {
	t.Helper()

	store, err := kv.New(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	verifier, err := signature.NewVerifier(webhookSecret, 5*time.Minute)
	require.NoError(t, err)
	pushGw, err := push.New(verifier, "https://checkout.test", 10*time.Minute)
	require.NoError(t, err)

	var pollGw *poll.Gateway
	if encoder != nil {
		pollGw = poll.New(encoder, 10*time.Minute)
	} else {
		pollGw = poll.New(qr.NewEncoder(qr.DefaultSize), 10*time.Minute)
	}

	svc, err := service.NewService(store, pushGw, pollGw, store, nil, statuses, zap.NewNop())
	require.NoError(t, err)

	return &testEnv{store: store, svc: svc}
}

func (e *testEnv) createOrder(t *testing.T, id string) {
	t.Helper()
	_, err := e.svc.CreateOrder(context.Background(), &domain.Order{
		ID:     domain.OrderID(id),
		Amount: decimal.MustParse("500"),
	})
	require.NoError(t, err)
}

func (e *testEnv) status(t *testing.T, id string) domain.PaymentStatus {
	t.Helper()
	o, err := e.store.ReadOrder(context.Background(), domain.OrderID(id))
	require.NoError(t, err)
	return o.PaymentStatus
}

func (e *testEnv) paidRecords(t *testing.T, id string) int {
	t.Helper()
	trail, err := e.store.AuditTrail(context.Background(), domain.OrderID(id))
	require.NoError(t, err)
	n := 0
	for _, rec := range trail {
		if rec.To == domain.PaymentStatusPaid {
			n++
		}
	}
	return n
}

func succeededBody(t *testing.T, orderID, intent string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":      "evt_" + intent,
		"type":    "payment_intent.succeeded",
		"created": time.Now().Unix(),
		"data": map[string]any{
			"object": map[string]any{
				"id":       intent,
				"metadata": map[string]string{push.MetadataOrderKey: orderID},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func TestScenario_TransferPaidBySimulation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O1")
	ctx := context.Background()

	payable, err := env.svc.IssueReference(ctx, "O1", domain.PaymentMethodTransfer)
	require.NoError(t, err)
	assert.Regexp(t, `^REF-\d{6}$`, payable.Reference)
	assert.True(t, payable.PayloadUsable)
	assert.Contains(t, payable.Payload, "data:image/png;base64,")
	assert.Equal(t, 10, payable.ExpiryMinutes)
	assert.Equal(t, domain.PaymentStatusPending, env.status(t, "O1"))

	o, err := env.store.ReadOrder(ctx, "O1")
	require.NoError(t, err)
	require.NotNil(t, o.PaymentRef)
	assert.Equal(t, payable.Reference, *o.PaymentRef)

	result, err := env.svc.SimulateSuccess(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)
	assert.Equal(t, statuses.Paid, result.Order.FulfillmentStatusID)
	// poll confirmation keeps the issued reference
	assert.Equal(t, payable.Reference, *result.Order.PaymentRef)

	isPaid, err := env.svc.PaymentStatus(ctx, "O1")
	require.NoError(t, err)
	assert.True(t, isPaid)

	_, err = env.svc.IssueReference(ctx, "O1", domain.PaymentMethodTransfer)
	assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
}

func TestScenario_ReissueReplacesReference(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O1")
	ctx := context.Background()

	_, err := env.svc.IssueReference(ctx, "O1", "")
	require.NoError(t, err)
	second, err := env.svc.IssueReference(ctx, "O1", "")
	require.NoError(t, err)

	o, err := env.store.ReadOrder(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, second.Reference, *o.PaymentRef)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
}

func TestScenario_PendingReferencesAreDistinct(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	encoder := mock.NewMockPayloadEncoder(mockCtrl)
	encoder.EXPECT().Encode(gomock.Any()).Return("data:image/png;base64,", nil).AnyTimes()

	env := newTestEnv(t, encoder)
	ctx := context.Background()

	const orders = 1500
	seen := make(map[string]string, orders)
	for n := 0; n < orders; n++ {
		id := fmt.Sprintf("O%d", n)
		env.createOrder(t, id)
		payable, err := env.svc.IssueReference(ctx, domain.OrderID(id), domain.PaymentMethodTransfer)
		require.NoError(t, err)
		if holder, ok := seen[payable.Reference]; ok {
			t.Fatalf("reference %s issued to %s and %s", payable.Reference, holder, id)
		}
		seen[payable.Reference] = id
	}

	for ref, id := range seen {
		o, err := env.store.ReadOrder(ctx, domain.OrderID(id))
		require.NoError(t, err)
		assert.Equal(t, ref, *o.PaymentRef)
	}
}

func TestScenario_DuplicateWebhookDelivery(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O2")
	ctx := context.Background()

	body := succeededBody(t, "O2", "pi_O2")
	sig := signature.Sign(webhookSecret, time.Now(), body)

	first, err := env.svc.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, first.Outcome)

	second, err := env.svc.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnoredTerminal, second.Outcome)

	assert.Equal(t, domain.PaymentStatusPaid, env.status(t, "O2"))
	assert.Equal(t, 1, env.paidRecords(t, "O2"))

	o, err := env.store.ReadOrder(ctx, "O2")
	require.NoError(t, err)
	assert.Equal(t, "pi_O2", *o.PaymentRef)
}

func TestScenario_CancelledOrderIgnoresLatePayment(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O3")
	ctx := context.Background()

	o, err := env.svc.Cancel(ctx, "O3")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCancelled, o.PaymentStatus)
	assert.Equal(t, statuses.Cancelled, o.FulfillmentStatusID)

	body := succeededBody(t, "O3", "pi_O3")
	result, err := env.svc.HandleWebhook(ctx, body, signature.Sign(webhookSecret, time.Now(), body))
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIgnoredTerminal, result.Outcome)
	assert.Equal(t, domain.PaymentStatusCancelled, env.status(t, "O3"))

	_, err = env.svc.Cancel(ctx, "O3")
	assert.Equal(t, domain.ErrAlreadyTerminal, err)
}

func TestScenario_InvalidSignatureLeavesOrderPending(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O4")

	body := succeededBody(t, "O4", "pi_O4")
	result, err := env.svc.HandleWebhook(context.Background(), body,
		signature.Sign("someone-else", time.Now(), body))

	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Equal(t, domain.OutcomeRejected, result.Outcome)
	assert.Equal(t, domain.PaymentStatusPending, env.status(t, "O4"))
}

func TestScenario_PayloadEncoderFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	encoder := mock.NewMockPayloadEncoder(mockCtrl)
	encoder.EXPECT().Encode(gomock.Any()).Return("", errors.New("data too long"))

	env := newTestEnv(t, encoder)
	env.createOrder(t, "O5")

	payable, err := env.svc.IssueReference(context.Background(), "O5", domain.PaymentMethodTransfer)
	assert.ErrorIs(t, err, domain.ErrPayloadGenerationFailed)
	require.NotNil(t, payable)
	assert.False(t, payable.PayloadUsable)
	assert.Equal(t, poll.TransferContent(payable.Reference, &domain.Order{ID: "O5", Amount: decimal.MustParse("500")}),
		payable.Payload)
	assert.Equal(t, domain.PaymentStatusPending, env.status(t, "O5"))
}

func TestConcurrentSuccessAppliesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "O6")

	const n = 16
	outcomes := make(chan domain.Outcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var result domain.ReconcileResult
			var err error
			if i%2 == 0 {
				body := succeededBody(t, "O6", "pi_O6")
				result, err = env.svc.HandleWebhook(context.Background(), body,
					signature.Sign(webhookSecret, time.Now(), body))
			} else {
				result, err = env.svc.SimulateSuccess(context.Background(), "O6")
			}
			assert.NoError(t, err)
			outcomes <- result.Outcome
		}(i)
	}
	wg.Wait()
	close(outcomes)

	counts := make(map[domain.Outcome]int)
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[domain.OutcomeApplied])
	assert.Equal(t, n-1, counts[domain.OutcomeIgnoredTerminal])
	assert.Equal(t, domain.PaymentStatusPaid, env.status(t, "O6"))
	assert.Equal(t, 1, env.paidRecords(t, "O6"))
}

func TestSweepExpiredWithStore(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createOrder(t, "old")
	env.createOrder(t, "paid")
	ctx := context.Background()

	_, err := env.svc.SimulateSuccess(ctx, "paid")
	require.NoError(t, err)

	n, err := env.svc.SweepExpired(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.PaymentStatusFailed, env.status(t, "old"))
	assert.Equal(t, domain.PaymentStatusPaid, env.status(t, "paid"))
}

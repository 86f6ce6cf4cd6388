package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port/mock"
	"github.com/MikeRez0/paymentrecon/internal/core/service"
	"github.com/golang/mock/gomock"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var statuses = domain.FulfillmentStatuses{AwaitingPayment: 1, Paid: 2, Cancelled: 5}

type prepareEngineMocks func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics)

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64 { return &i }

func order(id string, status domain.PaymentStatus) *domain.Order {
	return &domain.Order{
		ID:                  domain.OrderID(id),
		Amount:              decimal.MustParse("500"),
		PaymentStatus:       status,
		FulfillmentStatusID: statuses.AwaitingPayment,
	}
}

func TestEngine_Apply(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	logger := zap.NewNop()

	paid := order("O1", domain.PaymentStatusPaid)
	paid.FulfillmentStatusID = statuses.Paid
	paid.PaymentRef = strPtr("pi_1")

	failed := order("O1", domain.PaymentStatusFailed)
	cancelled := order("O1", domain.PaymentStatusCancelled)
	cancelled.FulfillmentStatusID = statuses.Cancelled

	type applyTest struct {
		name       string
		event      domain.GatewayEvent
		mock       prepareEngineMocks
		expError   error
		expOutcome domain.Outcome
	}

	tests := []applyTest{
		{
			name:  "push success pays pending order",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventPaymentSucceeded, OrderID: "O1", TransactionID: "pi_1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), domain.StatusChange{
					To:                  domain.PaymentStatusPaid,
					FulfillmentStatusID: int64Ptr(statuses.Paid),
					PaymentRef:          strPtr("pi_1"),
				}).Return(paid, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, rec domain.AuditRecord) error {
						assert.Equal(t, domain.PaymentStatusPending, rec.From)
						assert.Equal(t, domain.PaymentStatusPaid, rec.To)
						assert.Equal(t, "pi_1", rec.TransactionID)
						assert.Equal(t, "pi_1", rec.PaymentRef)
						assert.NotEmpty(t, rec.ID)
						return nil
					})
				metrics.EXPECT().ObserveReconcile(domain.SourcePush, domain.EventPaymentSucceeded, domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
		{
			name:  "poll success keeps provisional reference",
			event: domain.GatewayEvent{Source: domain.SourcePoll, Kind: domain.EventPaymentSucceeded, OrderID: "O1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), domain.StatusChange{
					To:                  domain.PaymentStatusPaid,
					FulfillmentStatusID: int64Ptr(statuses.Paid),
				}).Return(paid, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
				metrics.EXPECT().ObserveReconcile(domain.SourcePoll, domain.EventPaymentSucceeded, domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
		{
			name:  "failure leaves fulfillment untouched",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventPaymentFailed, OrderID: "O1", TransactionID: "pi_2"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"),
					domain.StatusChange{To: domain.PaymentStatusFailed}).Return(failed, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
		{
			name:  "session expired fails order",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventSessionExpired, OrderID: "O1", TransactionID: "cs_1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"),
					domain.StatusChange{To: domain.PaymentStatusFailed}).Return(failed, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
		{
			name:  "admin cancel sets cancelled fulfillment",
			event: domain.GatewayEvent{Source: domain.SourceAdmin, Kind: domain.EventCancelRequested, OrderID: "O1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), domain.StatusChange{
					To:                  domain.PaymentStatusCancelled,
					FulfillmentStatusID: int64Ptr(statuses.Cancelled),
				}).Return(cancelled, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
		{
			name:  "terminal order is acknowledged without audit",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventPaymentSucceeded, OrderID: "O1", TransactionID: "pi_1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), gomock.Any()).Return(cancelled, false, nil)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeIgnoredTerminal)
			},
			expOutcome: domain.OutcomeIgnoredTerminal,
		},
		{
			name:  "unrelated event never touches the store",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventUnrelated},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeIgnoredUnrelated)
			},
			expOutcome: domain.OutcomeIgnoredUnrelated,
		},
		{
			name:  "missing order id",
			event: domain.GatewayEvent{Source: domain.SourcePoll, Kind: domain.EventPaymentSucceeded},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
			},
			expError:   domain.ErrBadRequest,
			expOutcome: domain.OutcomeRejected,
		},
		{
			name:  "unknown order",
			event: domain.GatewayEvent{Source: domain.SourcePoll, Kind: domain.EventPaymentSucceeded, OrderID: "nope"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("nope"), gomock.Any()).
					Return(nil, false, domain.ErrOrderNotFound)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeUnknownOrder)
			},
			expError:   domain.ErrOrderNotFound,
			expOutcome: domain.OutcomeUnknownOrder,
		},
		{
			name:  "store unavailable is propagated",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventPaymentSucceeded, OrderID: "O1", TransactionID: "pi_1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), gomock.Any()).
					Return(nil, false, domain.ErrStoreUnavailable)
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeRejected)
			},
			expError:   domain.ErrStoreUnavailable,
			expOutcome: domain.OutcomeRejected,
		},
		{
			name:  "audit failure does not fail the transition",
			event: domain.GatewayEvent{Source: domain.SourcePush, Kind: domain.EventPaymentSucceeded, OrderID: "O1", TransactionID: "pi_1"},
			mock: func(repo *mock.MockOrderStore, audit *mock.MockAuditSink, metrics *mock.MockMetrics) {
				repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), gomock.Any()).Return(paid, true, nil)
				audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))
				metrics.EXPECT().ObserveReconcile(gomock.Any(), gomock.Any(), domain.OutcomeApplied)
			},
			expOutcome: domain.OutcomeApplied,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repo := mock.NewMockOrderStore(mockCtrl)
			audit := mock.NewMockAuditSink(mockCtrl)
			metrics := mock.NewMockMetrics(mockCtrl)
			test.mock(repo, audit, metrics)

			e := service.NewEngine(repo, audit, metrics, statuses, logger)

			result, err := e.Apply(context.Background(), test.event)

			assert.Equal(t, test.expOutcome, result.Outcome)
			if test.expError != nil {
				assert.ErrorIs(t, err, test.expError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEngine_NilCollaborators(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	repo := mock.NewMockOrderStore(mockCtrl)
	repo.EXPECT().TransitionPending(gomock.Any(), domain.OrderID("O1"), gomock.Any()).
		Return(order("O1", domain.PaymentStatusPaid), true, nil)

	e := service.NewEngine(repo, nil, nil, statuses, zap.NewNop())
	result, err := e.Apply(context.Background(),
		domain.GatewayEvent{Source: domain.SourcePoll, Kind: domain.EventPaymentSucceeded, OrderID: "O1"})

	assert.NoError(t, err)
	assert.Equal(t, domain.OutcomeApplied, result.Outcome)
}

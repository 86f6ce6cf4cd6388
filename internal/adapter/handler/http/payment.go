package http

import (
	"errors"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Handler
	service port.Service
}

func NewPaymentHandler(service port.Service, logger *zap.Logger) (*PaymentHandler, error) {
	return &PaymentHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type orderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

type payableRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Method  string `json:"method"`
}

type payableResponse struct {
	Reference      string    `json:"reference"`
	PayablePayload string    `json:"payablePayload"`
	PayloadUsable  bool      `json:"payloadUsable"`
	Amount         string    `json:"amount"`
	ExpiryMinutes  int       `json:"expiryMinutes"`
	ExpiresAt      time.Time `json:"expiresAt"`
}

// CreatePayable issues a payment reference. A degraded payload is still a
// successful response; the client retries for a displayable one.
func (ph *PaymentHandler) CreatePayable(ctx *gin.Context) {
	req := payableRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	payable, err := ph.service.IssueReference(ctx, domain.OrderID(req.OrderID), domain.PaymentMethod(req.Method))
	if err != nil && (payable == nil || !errors.Is(err, domain.ErrPayloadGenerationFailed)) {
		ph.handleError(ctx, err)
		return
	}

	ph.handleSuccess(ctx, payableResponse{
		Reference:      payable.Reference,
		PayablePayload: payable.Payload,
		PayloadUsable:  payable.PayloadUsable,
		Amount:         payable.Amount.String(),
		ExpiryMinutes:  payable.ExpiryMinutes,
		ExpiresAt:      payable.ExpiresAt,
	})
}

type statusResponse struct {
	IsPaid bool `json:"isPaid"`
}

func (ph *PaymentHandler) Status(ctx *gin.Context) {
	isPaid, err := ph.service.PaymentStatus(ctx, domain.OrderID(ctx.Param("orderId")))
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, statusResponse{IsPaid: isPaid})
}

type reconcileResponse struct {
	Outcome       string `json:"outcome"`
	PaymentStatus string `json:"paymentStatus,omitempty"`
}

func toReconcileResponse(result domain.ReconcileResult) reconcileResponse {
	resp := reconcileResponse{Outcome: string(result.Outcome)}
	if result.Order != nil {
		resp.PaymentStatus = string(result.Order.PaymentStatus)
	}
	return resp
}

// SimulateSuccess confirms a manual payment. Settled orders answer 200 with
// the ignored outcome.
func (ph *PaymentHandler) SimulateSuccess(ctx *gin.Context) {
	req := orderRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		ph.handleValidationError(ctx, err)
		return
	}

	result, err := ph.service.SimulateSuccess(ctx, domain.OrderID(req.OrderID))
	if err != nil {
		ph.handleError(ctx, err)
		return
	}
	ph.handleSuccess(ctx, toReconcileResponse(result))
}

package http

import (
	"net/http"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/MikeRez0/paymentrecon/internal/core/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
	audit   port.AuditReader
}

func NewOrderHandler(service port.Service, audit port.AuditReader, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
		audit:   audit,
	}, nil
}

type createOrderRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type OrderResp struct {
	ID                  string    `json:"orderId"`
	Amount              string    `json:"amount"`
	PaymentStatus       string    `json:"paymentStatus"`
	FulfillmentStatusID int64     `json:"fulfillmentStatusId"`
	PaymentRef          *string   `json:"paymentRef,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

func toOrderResp(o *domain.Order) OrderResp {
	return OrderResp{
		ID:                  string(o.ID),
		Amount:              o.Amount.String(),
		PaymentStatus:       string(o.PaymentStatus),
		FulfillmentStatusID: o.FulfillmentStatusID,
		PaymentRef:          o.PaymentRef,
		CreatedAt:           o.CreatedAt,
	}
}

func (oh *OrderHandler) CreateOrder(ctx *gin.Context) {
	req := createOrderRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	amount, err := service.ParseAmount(req.Amount)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	order, err := oh.service.CreateOrder(ctx, &domain.Order{ID: domain.OrderID(req.OrderID), Amount: amount})
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccessWithStatus(ctx, toOrderResp(order), http.StatusCreated)
}

func (oh *OrderHandler) Cancel(ctx *gin.Context) {
	req := orderRequest{}
	err := ctx.ShouldBindBodyWithJSON(&req)
	if err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	order, err := oh.service.Cancel(ctx, domain.OrderID(req.OrderID))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccess(ctx, toOrderResp(order))
}

type auditResp struct {
	ID            string    `json:"id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Source        string    `json:"source"`
	Kind          string    `json:"kind"`
	TransactionID string    `json:"transactionId,omitempty"`
	PaymentRef    string    `json:"paymentRef,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

func (oh *OrderHandler) AuditTrail(ctx *gin.Context) {
	list, err := oh.audit.AuditTrail(ctx, domain.OrderID(ctx.Param("orderId")))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]auditResp, 0, len(list))
	for _, r := range list {
		result = append(result, auditResp{
			ID:            r.ID,
			From:          string(r.From),
			To:            string(r.To),
			Source:        string(r.Source),
			Kind:          string(r.Kind),
			TransactionID: r.TransactionID,
			PaymentRef:    r.PaymentRef,
			RecordedAt:    r.RecordedAt,
		})
	}
	oh.handleSuccess(ctx, result)
}

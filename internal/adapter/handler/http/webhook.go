package http

import (
	"io"
	"net/http"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	Handler
	service         port.Service
	signatureHeader string
}

func NewWebhookHandler(service port.Service, signatureHeader string, logger *zap.Logger) (*WebhookHandler, error) {
	return &WebhookHandler{
		Handler:         *NewHandler(logger),
		service:         service,
		signatureHeader: signatureHeader,
	}, nil
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}

// Receive answers 200 for every authentic delivery, including no-ops, so the
// processor stops retrying. Store failures answer 5xx to get a redelivery.
func (wh *WebhookHandler) Receive(ctx *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
	if err != nil {
		wh.handleValidationError(ctx, err)
		return
	}

	result, err := wh.service.HandleWebhook(ctx, body, ctx.GetHeader(wh.signatureHeader))
	if err != nil {
		wh.handleError(ctx, err)
		return
	}

	if result.Outcome == domain.OutcomeUnknownOrder {
		wh.logger.Warn("acknowledged webhook for unknown order")
	}
	wh.handleSuccess(ctx, webhookResponse{Received: true, Outcome: string(result.Outcome)})
}

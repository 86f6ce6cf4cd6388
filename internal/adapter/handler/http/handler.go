package http

import (
	"errors"
	"net/http"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorStatus struct {
	err    error
	status int
}

// errorStatusMap is checked in order with errors.Is.
var errorStatusMap = []errorStatus{
	{domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	{domain.ErrInternal, http.StatusInternalServerError},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrConflictingData, http.StatusConflict},

	{domain.ErrEmptyAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationHeader, http.StatusUnauthorized},
	{domain.ErrInvalidAuthorizationType, http.StatusUnauthorized},
	{domain.ErrInvalidToken, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},

	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrInvalidSignature, http.StatusBadRequest},

	{domain.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{domain.ErrUnsupportedMethod, http.StatusUnprocessableEntity},
	{domain.ErrAlreadyTerminal, http.StatusConflict},
	{domain.ErrPayloadGenerationFailed, http.StatusBadGateway},
}

func statusFor(err error) (int, bool) {
	for _, es := range errorStatusMap {
		if errors.Is(err, es.err) {
			return es.status, true
		}
	}
	return http.StatusInternalServerError, false
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for some specific request validation error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	h.logger.Debug("bad request", zap.Error(err))
	ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: domain.ErrBadRequest.Error()})
}

// handleError sends the status mapped from err; unmapped errors are logged
func (h *Handler) handleError(ctx *gin.Context, err error) {
	statusCode, ok := statusFor(err)
	if !ok || statusCode >= http.StatusInternalServerError {
		h.logger.Error("error processing request", zap.Error(err))
	}
	msg := err.Error()
	if !ok {
		msg = domain.ErrInternal.Error()
	}
	ctx.AbortWithStatusJSON(statusCode, errorResponse{Error: msg})
}

// handleSuccessWithStatus sends a success response with the specified status code and optional data
func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}

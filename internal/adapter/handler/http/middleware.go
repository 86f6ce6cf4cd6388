package http

import (
	"strings"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const authHeaderKey = "Authorization"
const authType = "Bearer"
const userPayloadKey = "user_payload"

func (h *Handler) authCheck(tokenService port.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.Request.Header.Get(authHeaderKey)
		if len(header) == 0 {
			h.handleError(ctx, domain.ErrEmptyAuthorizationHeader)
			return
		}

		words := strings.Split(header, " ")
		if len(words) != 2 {
			h.handleError(ctx, domain.ErrInvalidAuthorizationHeader)
			return
		}
		if words[0] != authType {
			h.handleError(ctx, domain.ErrInvalidAuthorizationType)
			return
		}
		token := words[1]
		payload, err := tokenService.VerifyToken(token)
		if err != nil {
			h.handleError(ctx, domain.ErrInvalidToken)
			return
		}

		ctx.Set(userPayloadKey, payload)

		ctx.Next()
	}
}

func (h *Handler) requireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		payload := getAuthPayload(ctx)
		if payload == nil || payload.Role != role {
			h.handleError(ctx, domain.ErrForbidden)
			return
		}
		ctx.Next()
	}
}

// trustedCaller admits admins, or anyone when the sandbox is enabled.
func (h *Handler) trustedCaller(tokenService port.TokenService, sandbox bool) gin.HandlersChain {
	if sandbox {
		return gin.HandlersChain{func(ctx *gin.Context) {
			h.logger.Debug("sandbox caller admitted", zap.String("path", ctx.FullPath()))
			ctx.Next()
		}}
	}
	return gin.HandlersChain{h.authCheck(tokenService), h.requireRole(port.RoleAdmin)}
}

func getAuthPayload(ctx *gin.Context) *port.TokenPayload {
	v, ok := ctx.Get(userPayloadKey)
	if !ok {
		return nil
	}
	payload, _ := v.(*port.TokenPayload)
	return payload
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.Debug("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

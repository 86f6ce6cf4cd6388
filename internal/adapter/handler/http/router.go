package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MikeRez0/paymentrecon/internal/adapter/config"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Router struct {
	*gin.Engine
	logger *zap.Logger
}

func NewRouter(
	conf *config.Payments,
	tokenService port.TokenService,
	paymentHandler *PaymentHandler,
	webhookHandler *WebhookHandler,
	orderHandler *OrderHandler,
	metrics http.Handler,
	logger *zap.Logger) (*Router, error) {

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))

	guard := NewHandler(logger)

	// Swagger
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/healthz", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	api := router.Group("/api")
	{
		api.POST("/webhooks/payment", webhookHandler.Receive)

		payments := api.Group("/payments")
		{
			payments.POST("/payable", paymentHandler.CreatePayable)
			payments.GET("/:orderId/status", paymentHandler.Status)

			simulate := append(guard.trustedCaller(tokenService, conf.SandboxSimulate), paymentHandler.SimulateSuccess)
			payments.POST("/simulate", simulate...)
		}

		admin := api.Group("/admin")
		{
			admin.Use(guard.authCheck(tokenService), guard.requireRole(port.RoleAdmin))
			admin.POST("/orders", orderHandler.CreateOrder)
			admin.POST("/orders/cancel", orderHandler.Cancel)
			admin.GET("/orders/:orderId/audit", orderHandler.AuditTrail)
		}
	}

	return &Router{Engine: router, logger: logger}, nil
}

// Serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func (r *Router) Serve(ctx context.Context, listenAddr string) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           r.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", zap.String("addr", listenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

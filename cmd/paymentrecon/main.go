package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MikeRez0/paymentrecon/internal/adapter/audit"
	"github.com/MikeRez0/paymentrecon/internal/adapter/auth"
	"github.com/MikeRez0/paymentrecon/internal/adapter/config"
	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/poll"
	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/push"
	"github.com/MikeRez0/paymentrecon/internal/adapter/gateway/signature"
	"github.com/MikeRez0/paymentrecon/internal/adapter/handler/http"
	"github.com/MikeRez0/paymentrecon/internal/adapter/logger"
	"github.com/MikeRez0/paymentrecon/internal/adapter/metrics"
	"github.com/MikeRez0/paymentrecon/internal/adapter/qr"
	"github.com/MikeRez0/paymentrecon/internal/adapter/storage"
	"github.com/MikeRez0/paymentrecon/internal/adapter/storage/kv"
	"github.com/MikeRez0/paymentrecon/internal/adapter/storage/repository"
	"github.com/MikeRez0/paymentrecon/internal/adapter/worker"
	"github.com/MikeRez0/paymentrecon/internal/core/domain"
	"github.com/MikeRez0/paymentrecon/internal/core/port"
	"github.com/MikeRez0/paymentrecon/internal/core/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type orderStorage interface {
	port.OrderStore
	port.AuditSink
	port.AuditReader
}

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		fmt.Printf("config error:%s", err)
		return
	}

	log, err := logger.NewLogger(conf.App)
	if err != nil {
		fmt.Printf("error creating log: %s", err)
		return
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(conf, log); err != nil {
		log.Error("service stopped", zap.Error(err))
	}
}

func run(conf *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store orderStorage
	if conf.Database.DSN != "" {
		db, err := storage.NewDBStorage(ctx, conf.Database)
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("database migration error: %w", err)
		}
		repo, err := repository.NewRepository(db)
		if err != nil {
			return fmt.Errorf("order repo creating error: %w", err)
		}
		store = repo
	} else {
		log.Warn("no database configured, using embedded store", zap.String("path", conf.Bolt.Path))
		kvStore, err := kv.New(conf.Bolt.Path)
		if err != nil {
			return fmt.Errorf("embedded store error: %w", err)
		}
		defer kvStore.Close()
		store = kvStore
	}

	tokenService, err := auth.New(conf.Auth.KeyHex)
	if err != nil {
		return fmt.Errorf("token service creating error: %w", err)
	}
	if conf.Auth.KeyHex == "" {
		log.Warn("AUTH_KEY is empty, admin tokens are valid for this process only")
	}

	verifier, err := signature.NewVerifier(conf.Payments.WebhookSecret, conf.Payments.SignatureTolerance)
	if err != nil {
		return fmt.Errorf("webhook verifier creating error: %w", err)
	}
	pushGateway, err := push.New(verifier, conf.Payments.CheckoutBaseURL, conf.Payments.ReferenceTTL)
	if err != nil {
		return fmt.Errorf("push gateway creating error: %w", err)
	}
	pollGateway := poll.New(qr.NewEncoder(conf.Payments.QRSize), conf.Payments.ReferenceTTL)

	sinks := []port.AuditSink{store}
	if len(conf.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(conf.Audit.KafkaBrokers, conf.Audit.KafkaTopic)
		if err != nil {
			return fmt.Errorf("kafka audit sink creating error: %w", err)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
	}
	dispatcher := audit.NewDispatcher(conf.Audit.Buffer, log.Named("Audit"), sinks...)

	promMetrics, err := metrics.New()
	if err != nil {
		return fmt.Errorf("metrics creating error: %w", err)
	}

	statuses := domain.FulfillmentStatuses{
		AwaitingPayment: conf.Fulfillment.AwaitingID,
		Paid:            conf.Fulfillment.PaidID,
		Cancelled:       conf.Fulfillment.CancelledID,
	}
	svc, err := service.NewService(store, pushGateway, pollGateway, dispatcher, promMetrics,
		statuses, log.Named("Service"))
	if err != nil {
		return fmt.Errorf("payment service creating error: %w", err)
	}

	paymentHandler, err := http.NewPaymentHandler(svc, log.Named("Payment handler"))
	if err != nil {
		return fmt.Errorf("payment handler creating error: %w", err)
	}
	webhookHandler, err := http.NewWebhookHandler(svc, conf.Payments.SignatureHeader, log.Named("Webhook handler"))
	if err != nil {
		return fmt.Errorf("webhook handler creating error: %w", err)
	}
	orderHandler, err := http.NewOrderHandler(svc, store, log.Named("Order handler"))
	if err != nil {
		return fmt.Errorf("order handler creating error: %w", err)
	}

	r, err := http.NewRouter(conf.Payments, tokenService, paymentHandler, webhookHandler, orderHandler,
		promMetrics.Handler(), log.Named("Router"))
	if err != nil {
		return fmt.Errorf("router creating error: %w", err)
	}

	sweeper := worker.NewSweeper(svc, conf.Sweep.Interval, conf.Sweep.MaxAge, log.Named("Sweeper"))

	// The dispatcher outlives the producers so records written while the
	// server drains still reach the sinks.
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	auditDone := make(chan error, 1)
	go func() { auditDone <- dispatcher.Run(auditCtx, 2) }()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sweeper.Run(gctx) })
	g.Go(func() error { return r.Serve(gctx, conf.HTTP.HostString) })
	err = g.Wait()

	stopAudit()
	if auditErr := <-auditDone; auditErr != nil && err == nil {
		err = auditErr
	}
	return err
}

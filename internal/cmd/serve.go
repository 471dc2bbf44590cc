package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/notify"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	httpserver "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"github.com/your-org/storefront-backend/internal/pkg/retry"
)

var (
	serveMigrate         bool
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run migrations before serving")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 30*time.Second, "Grace period for in-flight requests and notifications")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"name":        cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	db, err := postgres.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if serveMigrate || cfg.IsDevelopment() {
		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	gormDB := db.GetDB()
	rdb := redisClient.GetClient()

	stores := store.NewRepository(gormDB)
	products := product.NewRepository(gormDB)
	orders := order.NewRepository(gormDB)

	resolver := store.NewResolver(stores, retry.Policy{
		Attempts: cfg.Resolver.RetryCount,
		Delay:    cfg.Resolver.RetryDelay,
		MaxDelay: cfg.Resolver.RetryMaxWait,
		Jitter:   0.2,
	}, log, recorder)

	carts := cart.NewManager(cart.NewRepository(gormDB), products, log)
	reconciler := payment.NewReconciler(payment.NewIncidentRepository(gormDB), orders, recorder, log)

	var gateway payment.Gateway
	if cfg.OnlinePaymentsEnabled() {
		gateway = payment.NewRazorpayGateway(cfg.External.Razorpay, log)
	} else {
		log.Info("Gateway credentials not set, only cash on delivery is offered")
	}

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	orchestrator := checkout.NewOrchestrator(checkout.Dependencies{
		Carts:      carts,
		Orders:     orders,
		Gateway:    gateway,
		Reconciler: reconciler,
		Attempts:   redis.NewAttemptStore(rdb),
		Locker:     redis.NewLocker(rdb),
		Notifier:   notifier,
		Metrics:    recorder,
		Logger:     log,
	}, checkout.Options{
		Currency:      cfg.Checkout.Currency,
		CallTimeout:   cfg.Checkout.CallTimeout,
		AttemptTTL:    cfg.Checkout.AttemptTTL,
		LockTTL:       cfg.Checkout.LockTTL,
		NotifyTimeout: cfg.Checkout.NotifyTimeout,
		OrderURL:      orderURL(cfg.App.PublicURL),
	})

	var receipts handlers.ReceiptGenerator
	if cfg.Checkout.ReceiptsEnabled {
		receipts = pdf.NewService()
	}

	var rateLimit gin.HandlerFunc
	if cfg.Security.RateLimitPerMinute > 0 {
		limiter := redis.NewRateLimiter(rdb, cfg.Security.RateLimitPerMinute, time.Minute)
		rateLimit = middleware.RateLimit(limiter, cfg.Security.RateLimitPerMinute, log)
	}

	server := httpserver.NewServer(cfg, log, httpserver.Options{
		Routes: routes.Dependencies{
			Stores:       handlers.NewStoreHandler(products),
			Carts:        handlers.NewCartHandler(carts),
			Checkout:     handlers.NewCheckoutHandler(orchestrator),
			Orders:       handlers.NewOrderHandler(order.NewService(orders, log), stores, receipts),
			Webhooks:     handlers.NewWebhookHandler(reconciler, cfg.External.Razorpay.WebhookSecret, log),
			Session:      middleware.Session(redis.NewSessionStorage(rdb, cfg.Session.TTL), cfg.Session, log),
			StoreContext: middleware.StoreContext(resolver, cfg.Resolver.BaseDomain),
			SellerAuth:   middleware.SellerAuth(auth.NewJWTManager(cfg.JWT)),
		},
		RateLimit: rateLimit,
		Gatherer:  registry,
		Checks: []httpserver.HealthCheck{
			{Name: "database", Check: db.Health},
			{Name: "redis", Check: redisClient.Health},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
	if err := orchestrator.Wait(ctx); err != nil {
		log.WithError(err).Warn("Pending order notifications abandoned")
	}

	log.Info("Server shutdown completed")
	return nil
}

// buildNotifier fans order events out to email and, when configured, NATS
func buildNotifier(cfg *config.Config, log *logrus.Logger) (notify.Notifier, func(), error) {
	notifiers := notify.Multi{
		notify.NewEmailNotifier(email.NewService(cfg.External.Email, cfg.App.PublicURL, log)),
	}
	closer := func() {}

	if cfg.External.NATS.URL != "" {
		conn, err := notify.DialNATS(cfg.External.NATS.URL)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, notify.NewNATSNotifier(conn, cfg.External.NATS.Subject))
		closer = func() {
			if err := conn.Drain(); err != nil {
				log.WithError(err).Warn("Failed to drain NATS connection")
			}
		}
	}

	return notifiers, closer, nil
}

func orderURL(publicURL string) func(storeName string, orderID uint) string {
	return func(storeName string, orderID uint) string {
		return fmt.Sprintf("%s/%s/orders/%d", publicURL, url.PathEscape(storeName), orderID)
	}
}

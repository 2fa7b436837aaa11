package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-intake/internal/api/http"
	"github.com/spec-kit/ticket-intake/internal/api/http/handlers"
	"github.com/spec-kit/ticket-intake/internal/auth"
	"github.com/spec-kit/ticket-intake/internal/client/authapi"
	"github.com/spec-kit/ticket-intake/internal/client/ticketapi"
	"github.com/spec-kit/ticket-intake/internal/config"
	"github.com/spec-kit/ticket-intake/internal/events"
	"github.com/spec-kit/ticket-intake/internal/notify"
	"github.com/spec-kit/ticket-intake/internal/observability"
	"github.com/spec-kit/ticket-intake/internal/persistence"
	"github.com/spec-kit/ticket-intake/internal/repository"
	"github.com/spec-kit/ticket-intake/internal/service"
	"github.com/spec-kit/ticket-intake/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	memory := notify.NewMemorySink(cfg.Notification.RecentLimit)
	sinks := notify.Fanout{notify.NewLogSink(logger), memory}
	if redis.Enabled() {
		sinks = append(sinks, notify.NewRedisSink(redis.Client, cfg.Notification.ChannelPrefix, cfg.Notification.RecentLimit))
	}
	notificationService := service.NewNotificationService(dispatcher, sinks, metrics, logger)

	var receipts repository.ReceiptRepository
	if pg.Enabled() {
		receipts = repository.NewReceiptRepository(pg.PoolHandle())
	}

	forms := service.NewFormService(service.FormDependencies{
		Submitter:     newSubmitter(cfg.TicketAPI, logger),
		Dispatcher:    dispatcher,
		Receipts:      receipts,
		Notices:       sinks,
		IdleTTL:       cfg.Forms.IdleTTL,
		MaxPerSession: cfg.Forms.MaxPerSession,
		Logger:        logger,
	})
	resets := service.NewPasswordResetService(newResetClient(cfg.PasswordReset), dispatcher, logger)

	worker.StartNotificationWorker(notificationService, forms)
	janitorDone := worker.StartFormJanitor(ctx, forms, cfg.Forms.SweepInterval, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Options:        handlers.NewOptionsHandler(),
		Forms:          handlers.NewFormsHandler(forms, memory),
		Password:       handlers.NewPasswordHandler(resets),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.Bool("simulated_backend", cfg.TicketAPI.Simulate))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	<-janitorDone
}

func newSubmitter(cfg config.TicketAPIConfig, logger *zap.Logger) service.Submitter {
	if cfg.Simulate {
		return ticketapi.NewSimulatedSubmitter(cfg.SimulatedDelay)
	}
	return ticketapi.NewHTTPSubmitter(ticketapi.HTTPConfig{
		Endpoint:    cfg.Endpoint,
		RequireAuth: cfg.RequireAuth,
		Timeout:     cfg.ClientTimeout,
	}, logger)
}

func newResetClient(cfg config.PasswordResetConfig) service.PasswordResetClient {
	if cfg.Simulate {
		return &authapi.SimulatedResetClient{Delay: cfg.SimulatedDelay}
	}
	return authapi.NewHTTPResetClient(cfg.Endpoint)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

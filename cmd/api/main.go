package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/eventflow/internal/api/http"
	"github.com/spec-kit/eventflow/internal/api/http/handlers"
	"github.com/spec-kit/eventflow/internal/auth"
	"github.com/spec-kit/eventflow/internal/config"
	"github.com/spec-kit/eventflow/internal/data"
	"github.com/spec-kit/eventflow/internal/events"
	"github.com/spec-kit/eventflow/internal/identity"
	"github.com/spec-kit/eventflow/internal/observability"
	"github.com/spec-kit/eventflow/internal/persistence"
	"github.com/spec-kit/eventflow/internal/repository"
	"github.com/spec-kit/eventflow/internal/service"
	"github.com/spec-kit/eventflow/internal/session"
	"github.com/spec-kit/eventflow/internal/shell"
	"github.com/spec-kit/eventflow/internal/upstream"
	"github.com/spec-kit/eventflow/internal/views"
	"github.com/spec-kit/eventflow/internal/worker"
	"github.com/spec-kit/eventflow/migrations"
)

const (
	// sessionIdle is how long an untouched shell stays in memory. Its redis
	// record outlives it for the full session TTL.
	sessionIdle          = 30 * time.Minute
	sessionSweepInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	client := upstream.NewClient(cfg.App.RequestTimeout())
	identityGateway := identity.NewCognitoGateway(identity.CognitoConfig{
		Endpoint:    cfg.Identity.Endpoint,
		ClientID:    cfg.Identity.ClientID,
		GroupsClaim: cfg.Identity.GroupsClaim,
	}, client, logger.Named("identity"))

	var dataGateway data.Gateway
	switch cfg.Data.Backend {
	case config.DataBackendPostgres:
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		dataGateway = data.NewPostgresGateway(data.PostgresDependencies{
			EventRepo:        repository.NewEventRepository(pool),
			RegistrationRepo: repository.NewRegistrationRepository(pool),
			TicketRepo:       repository.NewTicketRepository(pool),
		})
	default:
		dataGateway = data.NewGraphQLGateway(data.GraphQLConfig{
			Endpoint: cfg.Data.GraphQLEndpoint,
			APIKey:   cfg.Data.GraphQLAPIKey,
		}, client, logger.Named("data"))
	}
	logger.Info("data backend selected", zap.String("backend", cfg.Data.Backend))

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	store := session.NewStore(redis.Client, cfg.Session.KeyPrefix, cfg.Session.TTL())
	registry := shell.NewRegistry(store, shell.Dependencies{
		Identity:   identityGateway,
		Data:       dataGateway,
		Dispatcher: dispatcher,
		Logger:     logger.Named("shell"),
	}, sessionIdle)
	go worker.RunSessionSweeper(ctx, registry, sessionSweepInterval, logger)

	renderer, err := views.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse templates", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: !cfg.App.IsDevelopment(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	checks := map[string]handlers.Pinger{"redis": redis}
	if pg.Configured() {
		checks["postgres"] = pg
	}
	pages := handlers.NewPagesHandler(renderer, cfg.App.Name, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks),
		Metrics:           handlers.NewMetricsHandler(metrics),
		Pages:             pages,
		Auth:              handlers.NewAuthHandler(pages, logger),
		Events:            handlers.NewEventsHandler(logger),
		Tickets:           handlers.NewTicketsHandler(logger),
		SessionMiddleware: auth.NewSessionMiddleware(registry, cfg.Session, logger),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

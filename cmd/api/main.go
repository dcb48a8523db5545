package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/postroute/postal-service/internal/api/http"
	"github.com/postroute/postal-service/internal/api/http/handlers"
	"github.com/postroute/postal-service/internal/auth"
	"github.com/postroute/postal-service/internal/broker/kafka"
	"github.com/postroute/postal-service/internal/config"
	"github.com/postroute/postal-service/internal/domain"
	"github.com/postroute/postal-service/internal/events"
	"github.com/postroute/postal-service/internal/identity"
	"github.com/postroute/postal-service/internal/observability"
	"github.com/postroute/postal-service/internal/persistence"
	"github.com/postroute/postal-service/internal/repository"
	"github.com/postroute/postal-service/internal/repository/memory"
	"github.com/postroute/postal-service/internal/service"
	"github.com/postroute/postal-service/internal/session"
	"github.com/postroute/postal-service/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var sessions session.Store
	if redis.Enabled() {
		sessions = session.NewRedisStore(redis.Client, cfg.Auth.SessionTTL())
	} else {
		sessions = session.NewMemoryStore(cfg.Auth.SessionTTL())
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var publisher service.MessagePublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close() //nolint:errcheck
		publisher = producer
		logger.Info("publishing mail events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.MailTopic))
	}
	worker.StartNotificationWorker(service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Publisher:  publisher,
		Topic:      cfg.Kafka.MailTopic,
	}))

	identityManager := identity.NewManager(store, cfg.Auth.BcryptCost)
	if err := service.NewSetupService(store, identityManager, cfg.Admin, logger).Run(ctx, domain.BuiltinRoles); err != nil {
		logger.Fatal("initial setup failed", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	lookups := session.Lookups{Users: store.Users(), Branches: store.Branches(), Cars: store.Cars()}

	mailService := service.NewMailService(service.MailDependencies{Store: store, Dispatcher: dispatcher})
	activityService := service.NewActivityService(store, dispatcher)
	branchService := service.NewBranchService(store)
	carService := service.NewCarService(store)
	authService := service.NewAuthService(service.AuthDependencies{
		Store:    store,
		Identity: identityManager,
		Sessions: sessions,
		Tokens:   tokens,
	})
	params := handlers.ListParams{DefaultPageSize: cfg.Listing.PageSize}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Account:        handlers.NewAccountHandler(authService, branchService, carService, params),
		Mail:           handlers.NewMailHandler(mailService, params),
		Activities:     handlers.NewActivityHandler(activityService, params),
		Registry:       handlers.NewRegistryHandler(branchService, carService, params),
		Users:          handlers.NewUsersHandler(service.NewUserService(store, identityManager, cfg.Admin.DefaultUserPassword), service.NewRoleService(store, identityManager), params),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, sessions, lookups),
		Metrics:        metrics,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting HTTP server", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.Shutdown()
	})
	if cfg.Retention.Enabled() {
		retention := worker.NewRetentionWorker(activityService, cfg.Retention.MaxAge(), cfg.Retention.Interval(), logger)
		group.Go(func() error { return retention.Run(groupCtx) })
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/supportdesk/ticket-dashboard/internal/api/http"
	"github.com/supportdesk/ticket-dashboard/internal/api/http/handlers"
	"github.com/supportdesk/ticket-dashboard/internal/auth"
	"github.com/supportdesk/ticket-dashboard/internal/config"
	"github.com/supportdesk/ticket-dashboard/internal/hub"
	"github.com/supportdesk/ticket-dashboard/internal/observability"
	"github.com/supportdesk/ticket-dashboard/internal/persistence"
	"github.com/supportdesk/ticket-dashboard/internal/repository"
	"github.com/supportdesk/ticket-dashboard/internal/service"
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

	var (
		userRepo    repository.UserRepository
		ticketRepo  repository.TicketRepository
		slaRepo     repository.SlaRepository
		routingRepo repository.RoutingRuleRepository
		tokenRepo   repository.RefreshTokenRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
		slaRepo = repository.NewSlaRepository(pool)
		routingRepo = repository.NewRoutingRuleRepository(pool)
		tokenRepo = repository.NewRefreshTokenRepository(pool)
	} else {
		logger.Warn("running with in-memory stores; data will not survive restarts")
		users := repository.NewMemoryUserStore()
		userRepo = users
		ticketRepo = repository.NewMemoryTicketStore(users)
		slaRepo = repository.NewMemorySlaStore()
		routingRepo = repository.NewMemoryRoutingStore()
		tokenRepo = repository.NewMemoryTokenStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	notificationHub := hub.New(logger, cfg.Hub.SendBufferSize)
	var notifier service.Notifier = notificationHub
	// Redis only gates readiness when the relay depends on it.
	var healthRedis *persistence.Redis
	if cfg.Hub.RelayEnabled {
		healthRedis = redis
		relay := hub.NewRedisRelay(notificationHub, redis.Client, cfg.Hub.RelayChannel, logger)
		go relay.Run(ctx)
		notifier = relay
		logger.Info("redis relay enabled", zap.String("channel", cfg.Hub.RelayChannel))
	}

	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  userRepo,
		TokenRepo: tokenRepo,
		Logger:    logger,
	})
	routingService := service.NewRoutingService(routingRepo, ticketRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		SlaRepo:    slaRepo,
		Routing:    routingService,
		Notifier:   notifier,
		Logger:     logger,
	})
	slaService := service.NewSlaService(slaRepo, ticketRepo, logger)
	agentService := service.NewAgentService(userRepo, ticketRepo, cfg.Auth.BcryptCost)

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, healthRedis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Agents:         handlers.NewAgentsHandler(agentService),
		Sla:            handlers.NewSlaHandler(slaService),
		Routing:        handlers.NewRoutingHandler(routingService),
		Ws:             handlers.NewWsHandler(notificationHub, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

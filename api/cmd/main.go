package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/ticket"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/clock"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/config"
	rediscache "github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/db/migrations"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/memory"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/infrastructure/security"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/booking-service/internal/transport/http/router"
)

// App holds all dependencies for the service.
type App struct {
	Config *config.Config
	Server *http.Server

	DB        *sql.DB       // nil with the memory driver
	Store     *memory.Store // nil with a SQL driver
	Cache     *rediscache.Client
	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer

	Tickets *ticket.Service
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.StorageDriver != config.DriverMemory {
		if u, err := url.Parse(cfg.DatabaseURL); err == nil {
			zlog.Info().
				Str("driver", cfg.StorageDriver).
				Str("db_host", u.Host).
				Str("db_db", u.Path).
				Msg("db config loaded")
		}
		db, err = postgres.Open(ctx, cfg.StorageDriver, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxIdleTime: cfg.DBConnMaxIdle,
		})
		if err != nil {
			zlog.Fatal().Err(err).Msg("db open failed")
		}
		defer db.Close()

		if cfg.DBAutoMigrate {
			if err := migrations.Apply(ctx, db); err != nil {
				zlog.Fatal().Err(err).Msg("db migrate failed")
			}
		}
	} else {
		zlog.Warn().Msg("STORAGE_DRIVER=memory: state is lost on restart")
	}

	var cache *rediscache.Client
	if cfg.RedisURL != "" {
		c, err := rediscache.New(ctx, cfg.RedisURL)
		if err != nil {
			// caching is optional
			zlog.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			cache = c
			defer cache.Close()
			zlog.Info().Msg("redis cache ready")
		}
	}

	var pub *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		pub = p
		defer pub.Close()
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events stay in the outbox")
	}

	app := NewApp(cfg, db, cache, pub)
	if err := app.Start(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("background workers failed to start")
	}
	defer app.Close()

	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// NewApp wires repositories, services and transport. db == nil selects the
// in-memory store; cache and pub are optional.
func NewApp(cfg *config.Config, db *sql.DB, cache *rediscache.Client, pub *rabbitmq.Publisher) *App {
	clk := clock.NewSystem()
	app := &App{Config: cfg, DB: db, Cache: cache, Publisher: pub}

	// 1) Infrastructure
	var (
		eventRepo  event.EventRepo
		ticketRepo ticket.TicketRepo
		userRepo   user.UserRepo
	)
	if db != nil {
		eventRepo = postgres.NewEventRepo(db)
		ticketRepo = postgres.NewTicketRepo(db)
		userRepo = postgres.NewUserRepo(db)
	} else {
		limit := cfg.OutboxMemoryLimit
		if pub == nil || !cfg.OutboxEnabled {
			// nothing drains the outbox; keep only a short tail for inspection
			limit = min(limit, cfg.OutboxBatch)
		}
		app.Store = memory.NewStore(memory.WithOutboxLimit(limit))
		eventRepo = app.Store.Events()
		ticketRepo = app.Store.Tickets()
		userRepo = app.Store.Users()
	}

	// a nil *Client must not become a non-nil interface
	var eventCache event.Cache
	var versions authmw.TokenVersionChecker
	if cache != nil {
		eventCache = cache
		versions = cache
	}

	// 2) Application
	eventSvc := event.New(eventRepo, clk, eventCache, cfg.CacheTTLDetails, cfg.CacheTTLList)
	app.Tickets = ticket.New(ticketRepo, clk, cfg.DefaultCurrency)
	userSvc := user.New(userRepo, security.NewBcryptHasher(cfg.BcryptCost), clk)

	// 3) Transport
	httpHandler := router.New(cfg,
		authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer, versions),
		handlers.NewEventsHandler(eventSvc, clk),
		handlers.NewTicketsHandler(app.Tickets),
		handlers.NewUsersHandler(userSvc),
		handlers.NewHealthHandler(app.readinessChecks()...),
	)

	// 4) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app
}

func (a *App) readinessChecks() []handlers.Check {
	var checks []handlers.Check
	if a.DB != nil {
		checks = append(checks, handlers.Check{Name: "postgres", Probe: a.DB.PingContext})
	}
	if a.Cache != nil {
		checks = append(checks, handlers.Check{Name: "redis", Probe: a.Cache.Ping})
	}
	if a.Publisher != nil {
		checks = append(checks, handlers.Check{Name: "rabbitmq", Probe: func(context.Context) error {
			if !a.Publisher.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}
	return checks
}

// Start launches the outbox drain and the lifecycle consumer. Both stop
// when ctx is done.
func (a *App) Start(ctx context.Context) error {
	cfg := a.Config

	if a.Publisher != nil && cfg.OutboxEnabled {
		if a.DB != nil {
			postgres.NewOutboxWorker(a.DB, a.Publisher, cfg.OutboxInterval, cfg.OutboxBatch).Start(ctx)
		} else {
			a.Store.StartOutboxRelay(ctx, a.Publisher, cfg.OutboxInterval)
		}
	}

	if cfg.RabbitURL != "" && cfg.RabbitConsume {
		c, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, a.Tickets)
		if err != nil {
			return err
		}
		if err := c.Start(ctx); err != nil {
			_ = c.Close()
			return err
		}
		a.Consumer = c
	}
	return nil
}

func (a *App) Close() {
	if a.Consumer != nil {
		_ = a.Consumer.Close()
	}
}

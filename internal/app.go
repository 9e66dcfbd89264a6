package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"users-svc/config"
	"users-svc/internal/application/ports"
	"users-svc/internal/application/services"
	domain "users-svc/internal/domain/user"
	"users-svc/internal/infrastructure/cache"
	"users-svc/internal/infrastructure/db/postgres"
	"users-svc/internal/infrastructure/db/postgres/user"
	"users-svc/internal/infrastructure/hasher"
	"users-svc/internal/infrastructure/jwt"
	"users-svc/internal/infrastructure/metrics"
	"users-svc/internal/infrastructure/mq"
	"users-svc/internal/interface/api/rest"
	"users-svc/internal/interface/api/rest/middleware"
	"users-svc/internal/interface/api/rest/validator"
	"users-svc/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	redis      *cache.Redis
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer
}

func newLogger(env string) (*zap.Logger, error) {
	switch env {
	case "dev", "development", "local":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}

func NewApp(ctx context.Context) (*App, error) {
	// a missing .env is fine, the environment may already be populated
	envErr := godotenv.Load(".env")
	cfg := config.Load()

	// logger
	logger, err := newLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	if envErr != nil {
		logger.Warn("no .env file loaded", zap.Error(envErr))
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	// metrics
	mCounter := metrics.NewCounter(prometheus.DefaultRegisterer)
	latency := metrics.NewHTTPDuration(prometheus.DefaultRegisterer)

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	validator.Init()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogGin(logger, mCounter, latency))
	if len(cfg.App.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.App.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderInternalToken, middleware.HeaderRequestID},
			ExposeHeaders: []string{"Content-Length", middleware.HeaderRequestID},
			MaxAge:        12 * time.Hour,
		}))
	}

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		return nil, fmt.Errorf("DB config error: %w", err)
	}
	if err = postgres.Migrate(logger, dbDsn); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn, cfg.DB.MaxConns)
	if err != nil {
		return nil, err
	}

	app := &App{
		logger:   logger,
		cfg:      cfg,
		db:       dbPool,
		httpSrv:  httpSrv,
		router:   r,
		mCounter: mCounter,
	}

	// redis is optional, the service runs uncached without it
	if cfg.RedisEnabled() {
		rdb := cache.NewRedis(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis unavailable, user cache disabled", zap.Error(err))
			_ = rdb.Close()
		} else {
			logger.Info("redis connected successfully")
			app.redis = rdb
		}
	}

	// rabbitMQ
	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("RabbitMQ config error: %w", err)
	}
	rbMQ := mq.New(cfg.MQ, logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to rabbitMQ: %w", err)
	}
	app.mq = rbMQ
	if err = rbMQ.Init(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed init rabbitMQ: %w", err)
	}
	//rmqConsumer
	rmqConsumer := rmqconsumer.New(cfg.MQ, logger, rbMQ.GetConn(), mq.Actions)
	if err = rmqConsumer.Connect(rabbitDsn); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect rabbitMQ consumer: %w", err)
	}
	if err = rmqConsumer.Init(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to init rabbitMQ consumer: %w", err)
	}
	app.mqConsumer = rmqConsumer

	return app, nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		_ = a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	g.Go(func() error {
		a.mqConsumer.DeliveryWorker(ctx)
		return nil
	})

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos, lifecycle writes never build on a cached row
	var store domain.Repository = user.NewRepository(a.db)
	lifecycleRepo, queryRepo := store, store
	if a.redis != nil {
		cached := cache.NewCachedRepository(store, a.redis, a.cfg.Redis.UserTTL, a.logger)
		lifecycleRepo, queryRepo = cached.Uncached(), cached
	}

	// services
	jwtService := jwt.New(a.cfg.Security.JWTSecret, a.cfg.Security.JWTIssuer)
	userService := services.NewUserService(lifecycleRepo, hasher.New(a.cfg.Hasher.BcryptCost), a.mq, a.mCounter, a.logger)
	queryService := services.NewUserQueryService(queryRepo, a.logger)

	// controllers
	auth := middleware.AuthMiddleware(jwtService, a.cfg.Security.InternalToken)
	rest.NewUserController(a.router, userService, queryService, a.logger, auth)

	// ops
	a.router.GET(rest.RouteHealth, a.healthHandler)
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": "database unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) Logger() *zap.Logger { return a.logger }

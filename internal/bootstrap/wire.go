package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/baechuer/newslink/internal/api"
	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/application/todo"
	"github.com/baechuer/newslink/internal/config"
	"github.com/baechuer/newslink/internal/infrastructure/db/sqldb"
	"github.com/baechuer/newslink/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/newslink/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/newslink/internal/infrastructure/redis"
	"github.com/baechuer/newslink/internal/infrastructure/security"
	"github.com/baechuer/newslink/internal/logger"
	"github.com/baechuer/newslink/internal/tracing"
	http_handlers "github.com/baechuer/newslink/internal/transport/http/handlers"
	"github.com/baechuer/newslink/internal/transport/http/middleware"
	"github.com/baechuer/newslink/internal/transport/http/response"
	"github.com/baechuer/newslink/internal/transport/http/router"
)

// ServiceName tags traces and metrics.
const ServiceName = "newslink"

// Version is overridden at link time.
var Version = "dev"

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(driver, dsn string, debug bool) (*sql.DB, error)

	// NewRedis is optional; nil keeps sessions in memory.
	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(url, exchange string) (Publisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

type Publisher interface {
	auth.EventPublisher
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db
	db, err := deps.NewDB(cfg.DBDriver, cfg.DBURL, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}

	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	if cfg.DBMigrate {
		if err := sqldb.Migrate(db, cfg.DBDriver); err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
		logger.Logger.Info().Str("driver", cfg.DBDriver).Msg("migrations applied")
	}

	userRepo := sqldb.NewUserRepo(db)
	todoRepo := sqldb.NewTodoRepo(db)

	// 2) redis (best-effort)
	var redisCli *redis.Client
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		rc, ok := c.(*redis.Client)
		switch {
		case err != nil:
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory sessions")
			_ = c.Close()
		case !ok:
			logger.Logger.Warn().Msg("redis client has unexpected type; using in-memory sessions")
			_ = c.Close()
		default:
			logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
			redisCli = rc
			cleanupFns = append(cleanupFns, func() { _ = rc.Close() })
		}
	}

	var sessionStore auth.SessionStore
	if redisCli != nil {
		sessionStore = redis.NewSessionStore(redisCli)
	} else {
		sessionStore = memory.NewSessionStore()
	}

	// 3) publisher
	var pub Publisher = memory.NewNoopPublisher()
	if cfg.RabbitURL != "" && deps.NewPublisher != nil {
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		switch {
		case err == nil:
			pub = p
		case cfg.Env == "dev":
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
		default:
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}
	if c, ok := pub.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 4) tracing
	tp, err := tracing.InitTracing(context.Background(), tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	cleanupFns = append(cleanupFns, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	})

	// 5) security
	logger.Logger.Info().Str("issuer", cfg.AuthIssuer).Msg("initializing bearer signer")
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	bearer := security.NewBearerSigner(cfg.AuthSecret, cfg.AuthIssuer)

	// 6) services
	authSvc := auth.NewService(
		userRepo,
		hasher,
		sessionStore,
		pub,
		auth.Config{SessionTTL: cfg.SessionTTL},
	).WithAudit(logger.Audit)

	if cfg.AdminEmail != "" {
		admin, err := authSvc.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
		logger.Logger.Info().Str("user_id", admin.ID).Msg("admin account ready")
	}

	todoSvc := todo.NewService(todoRepo)

	rpcRouter, err := api.NewRouter(api.Deps{
		Todos: todoSvc,
		Admin: authSvc,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 7) handlers + middleware
	secureCookies := cfg.Env != "dev"

	authH := http_handlers.NewAuthHandler(authSvc, bearer, authSvc.SessionTTL(), secureCookies)

	extra := map[string]http_handlers.Pinger{}
	if redisCli != nil {
		extra["redis"] = redisCli
	}
	healthH := http_handlers.NewHealthHandler(db, extra)

	// rate limit (fail-open)
	var fwLimiter *redis.FixedWindowLimiter
	if redisCli != nil {
		fwLimiter = redis.NewFixedWindowLimiter(redisCli)
	}

	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		if fwLimiter == nil {
			return nil
		}
		return middleware.RateLimitFixedWindow(
			fwLimiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   window,
			},
			response.WriteError,
		)
	}

	rpm := 0
	if cfg.RateLimitEnabled {
		rpm = cfg.RateLimitRPM
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:         healthH,
		Auth:           authH,
		RPC:            rpcRouter,
		SessionMW:      middleware.Session(authSvc, bearer),
		AuthLimitMW:    rl("auth.credentials", 10, time.Minute),
		ServiceName:    ServiceName,
		TrustedOrigins: cfg.TrustedOrigins,
		RateLimitRPM:   rpm,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url, exchange string) (Publisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

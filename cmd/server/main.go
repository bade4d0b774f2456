package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pizzeria-be/internal/api"
	"pizzeria-be/internal/auth"
	"pizzeria-be/internal/catalog"
	"pizzeria-be/internal/config"
	"pizzeria-be/internal/db"
	"pizzeria-be/internal/guard"
	"pizzeria-be/internal/logger"
	"pizzeria-be/internal/metrics"
	"pizzeria-be/internal/middleware"
	"pizzeria-be/internal/order"
	"pizzeria-be/internal/user"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	limiterSweepInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database := initDBFunc(cfg)
	defer database.Close()

	rdb := openRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database, rdb),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("pizzeria API listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

// openRedis returns nil when no cache is configured or the server cannot be
// reached; the menu is then read straight from Postgres.
func openRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.L().Warn("invalid REDIS_URL, menu cache disabled", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.L().Warn("redis unreachable, menu cache disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// newServer wires repositories, services and middleware into one handler.
// The limiter sweeper runs until ctx is done.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, rdb *redis.Client) http.Handler {
	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTP(registry)

	tokens := auth.NewTokenService(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userRepo := user.NewRepository(database)
	gate := guard.New(userRepo)
	userSvc := user.NewService(userRepo, tokens, gate)

	menuCache := catalog.NoopMenuCache()
	if rdb != nil {
		menuCache = catalog.NewRedisMenuCache(rdb, cfg.MenuCacheTTL)
	}
	catalogSvc := catalog.NewService(catalog.NewRepository(database), gate, menuCache)

	orderSvc := order.NewService(order.NewRepository(database), gate, order.Pricing{
		DeliveryFee:        cfg.DeliveryFee,
		DeliveryMinutes:    cfg.DeliveryMinutes,
		DefaultPrepMinutes: cfg.DefaultPrepMinutes,
	}, metrics.NewOrders(registry))

	engine := api.NewRouter(api.Deps{
		Users:   userSvc,
		Catalog: catalogSvc,
		Orders:  orderSvc,
		Metrics: registry,
	})

	limiter := middleware.NewLimiter(cfg.InternalSecretKey, httpMetrics)
	go limiter.Run(ctx, limiterSweepInterval)

	return setupRouter(engine, tokens, limiter, httpMetrics, splitOrigins(cfg.CORSOrigins))
}

// setupRouter wraps the API engine. Outermost first: request id, bearer
// auth, access log, CORS, rate limiter. CORS sits outside the limiter so
// preflights are free and 429s still carry the allow-origin header.
func setupRouter(engine http.Handler, tokens middleware.TokenVerifier, limiter *middleware.Limiter, m *metrics.HTTP, origins []string) http.Handler {
	var h http.Handler = engine
	h = limiter.Middleware(h)
	h = middleware.CORS(origins)(h)
	h = middleware.AccessLog(m)(h)
	h = middleware.Auth(tokens)(h)
	h = logger.RequestIDMiddleware(h)
	return h
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// serve blocks until the server fails or ctx is canceled, then drains
// in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

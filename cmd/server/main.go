package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-be/internal/auth"
	"marketplace-be/internal/config"
	"marketplace-be/internal/db"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/metrics"
	"marketplace-be/internal/middleware"
	"marketplace-be/internal/order"
	"marketplace-be/internal/product"
	"marketplace-be/internal/rest"
	"marketplace-be/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		logger.L().Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.AppEnv); err != nil {
		return err
	}
	defer logger.Sync()

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SuperadminEmail != "" {
		users := user.NewService(user.NewRepository(database))
		if _, err := users.EnsureSuperadmin(ctx, cfg.SuperadminEmail, cfg.SuperadminPassword); err != nil {
			return err
		}
	}

	reg := metrics.NewRegistry()
	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.L().Info("http server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, srv)
}

// newServer wires repositories, services and the router around one pool.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, reg *prometheus.Registry) http.Handler {
	m := metrics.New(reg)

	users := user.NewService(user.NewRepository(database))
	products := product.NewService(product.NewRepository(database))
	orders := order.NewService(order.NewRepository(database), m)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	h := rest.NewHandler(rest.Deps{
		Users:    users,
		Products: products,
		Orders:   orders,
		Tokens:   tokens,
		Secure:   cfg.IsProduction(),
	})

	return rest.NewRouter(h, rest.RouterOptions{
		Metrics:     m,
		Gatherer:    reg,
		Limiter:     middleware.NewRateLimiter(ctx, cfg.InternalSecret, tokens),
		CORSOrigins: cfg.CORSOrigins,
	})
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

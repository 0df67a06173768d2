package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/config"
	"github.com/andrensetiawan/form-service/middleware"
	"github.com/andrensetiawan/form-service/pkg/idempotency"
	"github.com/andrensetiawan/form-service/routes"
	"github.com/andrensetiawan/form-service/services"
	"github.com/andrensetiawan/form-service/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	devJWTSecret    = "dev-only-secret"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := config.Migrations(db); err != nil {
			return fmt.Errorf("could not run migrations: %w", err)
		}
	}

	store, closeStore, err := openMediaStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	idem, err := openIdempotencyStore(ctx, cfg)
	if err != nil {
		return err
	}

	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devJWTSecret
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	limiter := middleware.NewRateLimiter(cfg.PublicRateLimit, cfg.PublicRateBurst, proxies)
	limiter.StartCleanup(ctx, time.Minute)

	settings := services.NewSettingsService(db)
	payments := services.NewPaymentService(db)
	customerLogs := services.NewCustomerLogService(db)
	svc := routes.Services{
		Users:        services.NewUserService(db),
		Requests:     services.NewRequestService(db, settings),
		Payments:     payments,
		Technicians:  services.NewTechnicianService(db),
		WorkLogs:     services.NewWorkLogService(db),
		CustomerLogs: customerLogs,
		PublicViews:  services.NewPublicViewService(db, settings, payments, customerLogs),
		Media:        services.NewMediaService(db, store, cfg.MaxUploadMB<<20),
		Branches:     services.NewBranchService(db),
		Settings:     settings,
		Activity:     services.NewActivityService(db),
	}
	opt := routes.Options{
		Logger:         logger,
		Tokens:         middleware.NewTokenIssuer(secret, cfg.JWTTTL),
		Idempotency:    idem,
		PublicLimiter:  limiter,
		TrustedProxies: proxies,
		AllowedOrigin:  cfg.CORSAllowedOrigin,
	}
	if cfg.MediaBackend == "local" {
		opt.UploadDir = cfg.UploadDir
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.RegisterRoutes(svc, opt),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("version", Version),
			zap.String("media_backend", cfg.MediaBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("Server exited")
	return nil
}

func openMediaStore(ctx context.Context, cfg *config.Config) (storage.MediaStore, func(), error) {
	if cfg.MediaBackend == "gcs" {
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.MediaPublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs: %w", err)
		}
		return store, func() { store.Close() }, nil
	}
	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.MediaPublicBaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

// openIdempotencyStore uses Redis when REDIS_URL is set and an in-process
// store otherwise.
func openIdempotencyStore(ctx context.Context, cfg *config.Config) (idempotency.Store, error) {
	if cfg.RedisURL != "" {
		store, err := idempotency.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		go func() {
			<-ctx.Done()
			store.Close()
		}()
		return store, nil
	}
	store := idempotency.NewMemoryStore()
	store.StartCleanup(ctx, time.Minute)
	return store, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/pchs-registration-api/internal/fees"
	"github.com/noah-isme/pchs-registration-api/internal/handler"
	"github.com/noah-isme/pchs-registration-api/internal/repository"
	"github.com/noah-isme/pchs-registration-api/internal/router"
	"github.com/noah-isme/pchs-registration-api/internal/service"
	"github.com/noah-isme/pchs-registration-api/internal/validation"
	"github.com/noah-isme/pchs-registration-api/pkg/cache"
	"github.com/noah-isme/pchs-registration-api/pkg/config"
	"github.com/noah-isme/pchs-registration-api/pkg/database"
	"github.com/noah-isme/pchs-registration-api/pkg/export"
	"github.com/noah-isme/pchs-registration-api/pkg/logger"
	"github.com/noah-isme/pchs-registration-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// bootstrap loads configuration and the logger shared by every command.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

func migrate(ctx context.Context, db *sqlx.DB, logr *zap.Logger) error {
	migrations, err := database.Migrations()
	if err != nil {
		return err
	}
	applied, err := database.NewMigrator(db, logr).Up(ctx, migrations)
	if err != nil {
		return err
	}
	logr.Info("migrations complete", zap.Int("applied", applied))
	return nil
}

func newAuthService(cfg *config.Config, db *sqlx.DB, logr *zap.Logger) *service.AuthService {
	return service.NewAuthService(repository.NewAdminRepository(db), validator.New(), logr, service.AuthConfig{
		TokenSecret:   cfg.JWT.Secret,
		TokenExpiry:   cfg.JWT.Expiration,
		Issuer:        cfg.JWT.Issuer,
		AdminUsername: cfg.Admin.Username,
		AdminPassword: cfg.Admin.Password,
		AdminEmail:    cfg.Admin.Email,
		AdminFullName: cfg.Admin.FullName,
	})
}

func runMigrate(ctx context.Context) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	return migrate(ctx, db, logr)
}

func runSeedAdmin(ctx context.Context) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	created, err := newAuthService(cfg, db, logr).EnsureDefaultAdmin(ctx)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		logr.Info("default admin already exists", zap.String("username", cfg.Admin.Username))
	}
	return nil
}

func runServe(ctx context.Context, skipMigrate bool) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate && !skipMigrate {
		if err := migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	auth := newAuthService(cfg, db, logr)
	if _, err := auth.EnsureDefaultAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Registration.StatsCacheTTL, logr, redisClient != nil)

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return err
	}
	schedule := fees.Default()
	checker := validation.New(nil, cfg.Uploads.MaxFileSizeBytes())
	photos := service.NewPhotoService(
		store,
		storage.NewSignedURLSigner(cfg.Uploads.PhotoURLSecret, cfg.Uploads.PhotoURLTTL),
		checker, logr, router.PhotoRoute,
	)

	studentRepo := repository.NewStudentRepository(db)
	students := service.NewStudentService(studentRepo, schedule, checker, photos, cacheSvc, metrics, logr, service.StudentServiceConfig{
		AllowClientFee: cfg.Registration.AllowClientFee,
		StatsCacheTTL:  cfg.Registration.StatsCacheTTL,
	})
	exports := service.NewExportService(studentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	checks := map[string]handler.ReadinessCheck{"database": db.PingContext}
	if redisClient != nil {
		checks["cache"] = cacheRepo.Ping
	}

	engine := router.New(cfg, logr, auth, metrics, router.Handlers{
		Auth:      handler.NewAuthHandler(auth),
		Students:  handler.NewStudentHandler(students, exports).WithUploadLimit(cfg.Uploads.MaxFileSizeBytes()),
		Reference: handler.NewReferenceHandler(schedule, checker),
		Photos:    handler.NewPhotoHandler(photos),
		Ops:       handler.NewMetricsHandler(metrics, checks, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

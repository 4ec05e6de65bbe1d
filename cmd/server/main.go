package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/Skotchmaster/property_listing/internal/config"
	"github.com/Skotchmaster/property_listing/internal/db"
	"github.com/Skotchmaster/property_listing/internal/events"
	"github.com/Skotchmaster/property_listing/internal/httpserver"
	"github.com/Skotchmaster/property_listing/internal/logging"
	"github.com/Skotchmaster/property_listing/internal/media"
	"github.com/Skotchmaster/property_listing/internal/metrics"
	"github.com/Skotchmaster/property_listing/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/property_listing/internal/middleware/logging"
	"github.com/Skotchmaster/property_listing/internal/middleware/ratelimit"
	"github.com/Skotchmaster/property_listing/internal/repo"
	"github.com/Skotchmaster/property_listing/internal/sanitize"
	"github.com/Skotchmaster/property_listing/internal/search"
	"github.com/Skotchmaster/property_listing/internal/service"
	"github.com/Skotchmaster/property_listing/internal/tokens"
	"github.com/Skotchmaster/property_listing/internal/validation"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid_config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewProducer(cfg.KafkaBrokers)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers)
	}

	index := newIndex(ctx, cfg, logger)
	store, uploadDir := newStore(ctx, cfg, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	users := repo.NewUserRepo(gdb)
	properties := repo.NewPropertyRepo(gdb)
	v := validation.New()
	issuer := &tokens.Issuer{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}
	authSvc := &service.AuthService{Users: users, Tokens: issuer, Validator: v, Events: publisher}
	propSvc := &service.PropertyService{
		Properties: properties,
		Users:      users,
		Validator:  v,
		Sanitizer:  sanitize.New(),
		Index:      index,
		Events:     publisher,
	}
	cookies := tokens.Cookies{Secure: cfg.CookieSecure}

	limiter := ratelimit.New(ratelimit.PerMinute(cfg.AuthRatePerMinute, cfg.AuthRateBurst))

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Validator = v

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		collector.Middleware(),
		loggingmw.RequestLogger(logger),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{cfg.ClientURL},
			AllowCredentials: true,
		}),
		middleware.BodyLimit(cfg.BodyLimit),
	)

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc, Cookies: cookies, Metrics: collector},
		UserHandler:     &httpserver.UserHTTP{Cookies: cookies},
		PropertyHandler: &httpserver.PropertyHTTP{Svc: propSvc, Store: store},
		TokenService:    &auth.TokenService{AccessSecret: cfg.JWTAccessSecret, Refresher: authSvc, Cookies: cookies},
		AuthLimiter:     limiter,
		Ready:           func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		Metrics:         metrics.Handler(reg),
		UploadDir:       uploadDir,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	limiter.Stop()
	closeAll(logger, gdb, publisher)

	logger.Info("shutdown_complete")
}

func newIndex(ctx context.Context, cfg config.Config, logger *slog.Logger) search.Index {
	if cfg.ESURL == "" {
		return nil
	}
	es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
	if err != nil {
		logger.Warn("search_disabled", "reason", "elasticsearch unreachable", "error", err)
		return nil
	}
	idx := search.NewESIndex(es, cfg.ESIndex)
	if err := idx.EnsureIndex(ctx); err != nil {
		logger.Warn("search_disabled", "reason", "cannot create index", "error", err)
		return nil
	}
	logger.Info("search_enabled", "index", cfg.ESIndex)
	return idx
}

// newStore returns the image store and, for the disk store, the directory to serve.
func newStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (media.Store, string) {
	if cfg.S3Bucket != "" {
		s3cfg := media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		}
		client, err := media.NewS3Client(ctx, s3cfg)
		if err == nil {
			logger.Info("media_store", "kind", "s3", "bucket", cfg.S3Bucket)
			return media.NewS3Store(client, s3cfg), ""
		}
		logger.Warn("s3_disabled", "reason", "falling back to disk", "error", err)
	}
	logger.Info("media_store", "kind", "disk", "dir", cfg.UploadDir)
	return &media.DiskStore{Dir: cfg.UploadDir, BaseURL: "/uploads"}, cfg.UploadDir
}

func closeAll(logger *slog.Logger, gdb *gorm.DB, publisher events.Publisher) {
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
}

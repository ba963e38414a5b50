package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/autonomo/api/internal/archive"
	"github.com/autonomo/api/internal/config"
	"github.com/autonomo/api/internal/database"
	"github.com/autonomo/api/internal/filing"
	apihandlers "github.com/autonomo/api/internal/handlers/api"
	"github.com/autonomo/api/internal/middleware"
	"github.com/autonomo/api/internal/vies"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		return config.Load()
	}
	return config.LoadDev(), nil
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newArchive(ctx context.Context, cfg config.ArchiveConfig) (archive.Archive, error) {
	if cfg.Backend == "s3" {
		return archive.NewS3(ctx, archive.S3Config{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			Bucket:         cfg.S3.Bucket,
			PublicURL:      cfg.S3.PublicURL,
		})
	}
	return archive.NewDir(cfg.Dir, cfg.URLPrefix), nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := apihandlers.Options{
		VerificationURL: cfg.VeriFactu.VerificationURL,
		QRSize:          cfg.VeriFactu.QRSize,
	}

	var pool *pgxpool.Pool
	if cfg.FilingEnabled() {
		var err error
		pool, err = database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		logger.Info("database connected")

		if cfg.MigrateOnStart {
			if err := database.Migrate(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			logger.Info("migrations complete")
		}

		opts.Filings = filing.NewService(pool, logger)

		if cfg.ArchiveEnabled() {
			arch, err := newArchive(ctx, cfg.Archive)
			if err != nil {
				return fmt.Errorf("creating document archive: %w", err)
			}
			opts.Archive = arch
			logger.Info("document archive enabled", "backend", cfg.Archive.Backend)
		}
	} else {
		logger.Info("no database configured, filing endpoints disabled")
	}

	if cfg.VIES.Enabled {
		var cache vies.Cache = vies.NewMemoryCache()
		if pool != nil {
			pgCache := vies.NewPGCache(pool)
			purger := vies.NewPurger(pgCache, logger)
			purger.Start(ctx)
			defer purger.Stop()
			cache = pgCache
		}
		opts.VIES = vies.NewClient(vies.Options{
			Endpoint: cfg.VIES.URL,
			Timeout:  cfg.VIES.Timeout,
			CacheTTL: cfg.VIES.CacheTTL,
			Cache:    cache,
		}, logger)
		logger.Info("VIES checks enabled", "shared_cache", pool != nil)
	}

	mux := http.NewServeMux()
	apihandlers.NewHandler(opts, logger).RegisterRoutes(mux)

	// Archived documents on local disk
	if opts.Archive != nil && cfg.Archive.Backend == "local" {
		prefix := strings.TrimRight(cfg.Archive.URLPrefix, "/")
		mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(cfg.Archive.Dir))))
	}

	limiter := middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Stop()

	// Outermost last.
	var chain http.Handler = mux
	chain = middleware.CORS(cfg.BaseURL)(chain)
	chain = limiter.Middleware(chain)
	chain = middleware.SecurityHeaders(chain)
	chain = middleware.Recover(logger)(chain)
	chain = middleware.RequestLogger(logger)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("API server starting", "port", cfg.Port, "verifactu_env", cfg.VeriFactu.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

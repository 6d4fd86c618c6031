package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/acme/autocert"

	"postboard/config"
	"postboard/domain"
	"postboard/handler"
	"postboard/store/memory"
	"postboard/store/mongostore"
	"postboard/store/sqldb"
	"postboard/upload"
	"postboard/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("opening post store", "store", cfg.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	uploads, images, err := setupUploads(cfg)
	if err != nil {
		logger.Error("preparing upload storage", "error", err)
		os.Exit(1)
	}

	renderer, err := web.NewTemplateRegistry(cfg.SiteTitle)
	if err != nil {
		logger.Error("parsing templates", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Renderer = renderer
	e.HTTPErrorHandler = web.HTTPErrorHandler(logger)

	h := handler.Handler{
		Store:         store,
		Uploads:       uploads,
		Images:        images,
		ConfirmDelete: *cfg.ConfirmDelete,
		Logger:        logger,
	}
	h.Register(e)

	e.StaticFS("/static", web.Static())
	if images == nil {
		e.Static("/uploads", cfg.UploadDir)
	}

	go func() {
		if err := start(e, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server exited")
}

func newLogger(env string) *slog.Logger {
	if env == config.DevEnv {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func start(e *echo.Echo, cfg *config.Config) error {
	if cfg.Address != "" {
		return e.Start(cfg.Address)
	}

	// Cache certificates to avoid issues with rate limits (https://letsencrypt.org/docs/rate-limits)
	e.AutoTLSManager.Cache = autocert.DirCache("/var/www/.cache")
	if cfg.WhitelistHost != "" {
		e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.WhitelistHost)
	}
	e.Pre(middleware.HTTPSRedirect())
	return e.StartAutoTLS(":443")
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.Store, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongostore.Connect(connectCtx, cfg.MongoURL)
		if client == nil {
			return nil, nil, err
		}
		if err != nil {
			// Requests fail on their own until the server is reachable.
			logger.Error("mongo is unreachable", "error", err)
		}
		coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Error("disconnecting from mongo", "error", err)
			}
		}
		return mongostore.New(coll, mongostore.WithOrdering(cfg.Ordering)), closeFn, nil

	case config.StoreSQL:
		logger.Info("running database schema migrations", "driver", cfg.DBDriver)
		db, err := sqldb.Open(cfg.DBDriver, cfg.DBURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Error("closing database", "error", err)
			}
		}
		return sqldb.New(db, sqldb.WithOrdering(cfg.Ordering)), closeFn, nil
	}

	s := memory.New(memory.WithSeed(memory.DefaultSeed), memory.WithOrdering(cfg.Ordering))
	return s, func() {}, nil
}

func setupUploads(cfg *config.Config) (*upload.Uploader, *upload.MemoryStorage, error) {
	if cfg.UploadStorage == config.UploadMemory {
		images := upload.NewMemoryStorage("/uploads")
		return upload.New(images, cfg.UploadMaxBytes), images, nil
	}

	disk, err := upload.NewDiskStorage(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, nil, err
	}
	return upload.New(disk, cfg.UploadMaxBytes), nil, nil
}

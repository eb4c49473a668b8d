// Package server wires the content store together: it opens the configured
// backend behind the envelope cipher, serves the HTTP API and the gRPC
// health endpoint, and shuts both down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/dbx"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/archive"
	"github.com/dmitrijs2005/draftkeeper/internal/server/config"
	"github.com/dmitrijs2005/draftkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/encrypted"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/mongostore"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/draftkeeper/internal/server/retention"
	"github.com/dmitrijs2005/draftkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/draftkeeper/internal/server/grpc"
)

// logOutput receives the JSON log stream.
var logOutput io.Writer = os.Stdout

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   repomanager.RepositoryManager
	service *services.ContentService
	http    *http.Server
	health  *gs.HealthServer
}

// openStore connects to the backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return repomanager.OpenSQL(ctx, dbx.Postgres, cfg.DatabaseDSN)
	case config.DriverSQLite:
		return repomanager.OpenSQL(ctx, dbx.SQLite, cfg.DatabaseDSN)
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.DatabaseDSN, cfg.MongoDatabase)
	case config.DriverMemory:
		return memstore.NewManager(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(logOutput, slog.LevelInfo)
	reporter := logging.NewOnceReporter(logger.With("module", "envelope"))

	cipher := cryptox.NewCipher(cryptox.Options{Enabled: c.EncryptionEnabled, Key: c.EncryptionKey}, reporter)
	if !c.EncryptionEnabled {
		logger.Warn(ctx, "envelope encryption is disabled by configuration, sensitive fields are stored as plaintext")
	} else {
		// surfaces a missing key now; the reporter keeps it to one warning
		cipher.Ready()
	}

	backend, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	if err := backend.RunMigrations(ctx); err != nil {
		_ = backend.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}
	store := encrypted.NewManager(backend, cipher)

	opts := []retention.Option{retention.WithLogger(logger)}
	if c.ArchiveBucket != "" {
		a, err := archive.New(ctx, archive.Options{
			Bucket:    c.ArchiveBucket,
			Region:    c.ArchiveRegion,
			Endpoint:  c.ArchiveEndpoint,
			AccessKey: c.ArchiveAccessKey,
			SecretKey: c.ArchiveSecretKey,
		}, cipher)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		opts = append(opts, retention.WithArchiver(a))
	}
	policy := retention.NewPolicy(c.MaxVersionsPerNode, opts...)
	logger.Info(ctx, "version retention configured", "ceiling", policy.Ceiling(), "archive", c.ArchiveBucket != "")

	svc := services.NewContentService(store, policy, logger)

	var jwtSecret []byte
	if c.JWTSecret != "" {
		jwtSecret = []byte(c.JWTSecret)
	}

	return &App{
		config:  c,
		logger:  logger,
		store:   store,
		service: svc,
		http:    &http.Server{Addr: c.HTTPAddr, Handler: httpapi.New(svc, logger, jwtSecret)},
		health:  gs.NewHealthServer(c.HealthAddrGRPC, logger, store.Ping, 0),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		app.logger.Info(ctx, "Stopping HTTP server...")
		if err := app.http.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := app.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

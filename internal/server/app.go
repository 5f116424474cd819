// Package server wires the TradeHub backend: storage, services, the gRPC
// endpoint and the admin HTTP endpoint, and runs them until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/server/admin"
	"github.com/dmitrijs2005/tradehub/internal/server/blobstore"
	"github.com/dmitrijs2005/tradehub/internal/server/config"
	"github.com/dmitrijs2005/tradehub/internal/server/docstore"
	"github.com/dmitrijs2005/tradehub/internal/server/metrics"
	"github.com/dmitrijs2005/tradehub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tradehub/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	gs "github.com/dmitrijs2005/tradehub/internal/server/grpc"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	auth     *services.AuthService
	market   *services.MarketService
	metrics  *metrics.Collector
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newDocumentStore(c, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	blobs, err := newBlobStore(c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(registry)

	market := services.NewMarketService(store, blobs, m, logger)
	auth := services.NewAuthService(db, rm, market, c, logger)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		registry: registry,
		auth:     auth,
		market:   market,
		metrics:  m,
	}, nil
}

func newDocumentStore(c *config.Config, db *sql.DB) (docstore.Store, error) {
	switch c.DocumentStore {
	case config.StorePostgres:
		return docstore.NewPostgresStore(db), nil
	case config.StoreMemory:
		return docstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown document store %q", c.DocumentStore)
}

func newBlobStore(c *config.Config) (blobstore.Store, error) {
	switch c.BlobBackend {
	case config.BlobS3:
		return blobstore.NewS3Store(blobstore.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			PresignTTL:   c.PresignTTL,
		}), nil
	case config.BlobMinio:
		return blobstore.NewMinioStore(c.S3BaseEndpoint, c.S3RootUser, c.S3RootPassword, c.S3Bucket, c.PresignTTL)
	case config.BlobMemory:
		return blobstore.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.auth, app.market, app.metrics,
		rate.Limit(app.config.RateLimit), app.config.RateBurst)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startAdminServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := admin.NewRouter(app.registry, map[string]admin.HealthCheck{
		"database": app.db.PingContext,
	})

	if err := admin.NewServer(app.config.AdminAddr, router, app.logger).Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startAdminServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

// Package server provides the application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/api"
	"github.com/JakeFAU/realtime-lead-scraper/internal/clock/system"
	"github.com/JakeFAU/realtime-lead-scraper/internal/config"
	"github.com/JakeFAU/realtime-lead-scraper/internal/export"
	"github.com/JakeFAU/realtime-lead-scraper/internal/fetcher"
	collyfetcher "github.com/JakeFAU/realtime-lead-scraper/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/realtime-lead-scraper/internal/fetcher/headless"
	"github.com/JakeFAU/realtime-lead-scraper/internal/hash/sha256"
	"github.com/JakeFAU/realtime-lead-scraper/internal/headless/detector"
	"github.com/JakeFAU/realtime-lead-scraper/internal/id/uuid"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/metrics"
	"github.com/JakeFAU/realtime-lead-scraper/internal/policy/ratelimit"
	memorypublisher "github.com/JakeFAU/realtime-lead-scraper/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/realtime-lead-scraper/internal/publisher/pubsub"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scheduler"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scrape"
	"github.com/JakeFAU/realtime-lead-scraper/internal/service"
	gcsstorage "github.com/JakeFAU/realtime-lead-scraper/internal/storage/gcs"
	localstorage "github.com/JakeFAU/realtime-lead-scraper/internal/storage/local"
	memorystorage "github.com/JakeFAU/realtime-lead-scraper/internal/storage/memory"
	pgstore "github.com/JakeFAU/realtime-lead-scraper/internal/storage/postgres"
	"github.com/JakeFAU/realtime-lead-scraper/internal/storage/webhook"
	"github.com/JakeFAU/realtime-lead-scraper/internal/targets"
)

// App contains the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	apiServer    *api.Server
	scheduler    *scheduler.Scheduler
	registry     *targets.Registry
	store        lead.Store
	pgStore      *pgstore.LeadStore
	headless     *headlessfetcher.Fetcher
	pubsubClient *pubsub.Client
	publisher    *gcppublisher.Publisher
	storage      *storage.Client
	closeOnce    sync.Once
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	clock := system.New()

	store, err := setupStore(ctx, app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	app.store = store

	initial := cfg.Targets
	if len(initial) == 0 {
		initial = targets.Defaults()
	}
	app.registry = targets.NewRegistry(clock, initial)
	logger.Info("target registry loaded", zap.Int("targets", app.registry.Len()))

	pageFetcher, err := setupFetcher(app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	assembler := lead.NewAssembler(clock, uuid.NewUUIDGenerator(), cfg.Scraper.PhoneRegion)
	job := scrape.NewJob(pageFetcher, assembler, logger)

	hooks, err := setupHooks(ctx, app, clock)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	minDelay, maxDelay := cfg.PacingRange()
	app.scheduler = scheduler.New(
		job,
		store,
		scheduler.NewRandomPacer(clock, minDelay, maxDelay),
		clock,
		scheduler.Config{InitialDelay: cfg.InitialDelay(), Interval: cfg.Interval()},
		logger,
		hooks...,
	)

	svc := service.New(store, app.registry, job, app.scheduler, clock, logger)
	app.apiServer = api.NewServer(svc, clock, cfg.Auth, logger)
	return app, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts the scheduler and HTTP server and blocks until ctx is canceled
// or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if a.cfg.Schedule.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.scheduler.Run(ctx, a.registry)
		}()
	} else {
		a.logger.Info("scheduled scraping disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve http: %w", err)
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	wg.Wait()
	a.Close()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// Close releases every external resource. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.closeInfrastructure()
		if err := a.logger.Sync(); err != nil {
			a.logger.Debug("logger sync failed", zap.Error(err))
		}
		a.logger.Info("shutdown complete")
	})
}

func (a *App) closeInfrastructure() {
	if a.headless != nil {
		a.headless.Close()
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.pubsubClient != nil {
		if err := a.pubsubClient.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
}

func setupStore(ctx context.Context, app *App) (lead.Store, error) {
	cfg := app.cfg
	switch cfg.Store.Backend {
	case config.StorePostgres:
		s, err := pgstore.NewLeadStore(ctx, pgstore.Config{
			DSN:             cfg.Database.DSN,
			Table:           cfg.Database.Table,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetimeMinutes) * time.Minute,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres lead store init failed: %w", err)
		}
		app.pgStore = s
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("postgres schema init failed: %w", err)
		}
		app.logger.Info("using postgres lead store", zap.String("table", cfg.Database.Table))
		return s, nil
	case config.StoreWebhook:
		s, err := webhook.New(webhook.Config{
			URL:     cfg.Webhook.URL,
			Timeout: time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("webhook lead store init failed: %w", err)
		}
		app.logger.Info("using webhook lead store")
		return s, nil
	default:
		app.logger.Info("using in-memory lead store")
		return memorystorage.NewLeadStore(), nil
	}
}

func setupFetcher(app *App) (lead.Fetcher, error) {
	cfg := app.cfg
	var opts []collyfetcher.Option
	if cfg.RateLimit.Enabled {
		opts = append(opts, collyfetcher.WithLimiter(ratelimit.New(ratelimit.Config{
			DefaultRPS:   cfg.RateLimit.DefaultRPS,
			DefaultBurst: cfg.RateLimit.DefaultBurst,
		})))
		app.logger.Info("rate limiter enabled",
			zap.Float64("default_rps", cfg.RateLimit.DefaultRPS),
			zap.Int("default_burst", cfg.RateLimit.DefaultBurst),
		)
	}
	probe := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Scraper.UserAgent,
		RespectRobots: cfg.Scraper.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
		MaxRedirects:  cfg.Scraper.MaxRedirects,
	}, opts...)
	app.logger.Info("using colly fetcher",
		zap.Duration("timeout", cfg.FetchTimeout()),
		zap.Bool("respect_robots", cfg.Scraper.RespectRobots),
	)
	if !cfg.Headless.Enabled {
		return probe, nil
	}
	headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		MaxParallel:       cfg.Headless.MaxParallel,
		UserAgent:         cfg.Scraper.UserAgent,
		NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("headless fetcher init failed: %w", err)
	}
	app.headless = headless
	app.logger.Info("headless promotion enabled", zap.Int("max_parallel", cfg.Headless.MaxParallel))
	return fetcher.NewPromoting(probe, headless, detector.NewHeuristic(cfg.Headless.PromotionThreshold), app.logger), nil
}

func setupHooks(ctx context.Context, app *App, clock lead.Clock) ([]scheduler.CycleHook, error) {
	var hooks []scheduler.CycleHook
	if app.cfg.Export.ArchiveEnabled {
		blobs, err := setupBlobStore(ctx, app)
		if err != nil {
			return nil, err
		}
		archiver := export.NewArchiver(blobs, sha256.New(), clock, app.cfg.Storage.Prefix)
		hooks = append(hooks, export.NewArchiveHook(app.store, archiver, app.logger))
	}
	publisher, topic, err := setupPublisher(ctx, app)
	if err != nil {
		return nil, err
	}
	hooks = append(hooks, scheduler.NewPublishHook(publisher, topic, app.logger))
	return hooks, nil
}

func setupBlobStore(ctx context.Context, app *App) (lead.BlobStore, error) {
	cfg := app.cfg.Storage
	switch cfg.Backend {
	case config.BlobGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		app.storage = client
		blobs, err := gcsstorage.New(client, gcsstorage.Config{Bucket: cfg.Bucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.logger.Info("using GCS export archive", zap.String("bucket", cfg.Bucket))
		return blobs, nil
	case config.BlobLocal:
		blobs, err := localstorage.New(localstorage.Config{BaseDir: cfg.Local.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Info("using local export archive", zap.String("path", cfg.Local.BaseDir))
		return blobs, nil
	default:
		app.logger.Info("using in-memory export archive")
		return memorystorage.NewBlobStore(), nil
	}
}

func setupPublisher(ctx context.Context, app *App) (lead.Publisher, string, error) {
	cfg := app.cfg.PubSub
	if cfg.TopicName == "" || cfg.ProjectID == "" {
		app.logger.Info("no Pub/Sub topic configured, recording cycle events in memory")
		return memorypublisher.New(), "cycles", nil
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, "", fmt.Errorf("pubsub client init failed: %w", err)
	}
	app.pubsubClient = client
	app.publisher = gcppublisher.New(client, cfg.TopicName)
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("topic", cfg.TopicName),
	)
	return app.publisher, cfg.TopicName, nil
}

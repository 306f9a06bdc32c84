// Package main wires together the sitecrawler service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcppubsub "cloud.google.com/go/pubsub"
	gcpstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/shopsage/crawler/internal/api"
	"github.com/shopsage/crawler/internal/app"
	"github.com/shopsage/crawler/internal/clock/system"
	"github.com/shopsage/crawler/internal/config"
	"github.com/shopsage/crawler/internal/crawler"
	"github.com/shopsage/crawler/internal/extract"
	"github.com/shopsage/crawler/internal/logging"
	"github.com/shopsage/crawler/internal/publish"
	memorypublisher "github.com/shopsage/crawler/internal/publish/memory"
	pubsubpublisher "github.com/shopsage/crawler/internal/publish/pubsub"
	"github.com/shopsage/crawler/internal/snapshot"
	gcsstore "github.com/shopsage/crawler/internal/snapshot/gcs"
	localstore "github.com/shopsage/crawler/internal/snapshot/local"
	memorystore "github.com/shopsage/crawler/internal/snapshot/memory"
	postgresstore "github.com/shopsage/crawler/internal/snapshot/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		logger.Fatal("snapshot store init failed", zap.Error(err))
	}

	publisher, pubStop, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer pubStop()

	var renderer extract.Renderer
	if cfg.Render.Enabled {
		chromedpRenderer, rerr := extract.NewChromedpRenderer(extract.ChromedpConfig{
			MaxParallel: cfg.Render.MaxParallel,
			UserAgent:   cfg.Crawler.UserAgent,
			NavTimeout:  cfg.RenderTimeout(),
		})
		if rerr != nil {
			logger.Warn("renderer init failed, continuing without render fallback", zap.Error(rerr))
		} else {
			renderer = chromedpRenderer
			defer chromedpRenderer.Close()
		}
	}

	fetcher, err := crawler.NewCollyFetcher(crawler.FetcherConfig{
		UserAgent:   cfg.Crawler.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		Concurrency: cfg.Crawler.Concurrency,
	}, logger.Named("fetcher"))
	if err != nil {
		logger.Fatal("fetcher init failed", zap.Error(err))
	}
	extractor := extract.New(fetcher, renderer, logger.Named("extract"))
	scheduler := crawler.NewScheduler(extractor, logger.Named("crawler"))

	clock := system.New()
	service := app.New(scheduler, store, publisher, clock, logger.Named("app"), cfg.PubSub.Topic)

	if cfg.Recrawl.Enabled {
		go func() {
			logger.Info("re-crawler started",
				zap.Int("interval_minutes", cfg.Recrawl.IntervalMinutes),
				zap.Int("staleness_hours", cfg.Recrawl.StalenessHours),
			)
			service.RunRecrawler(
				ctx,
				time.Duration(cfg.Recrawl.IntervalMinutes)*time.Minute,
				time.Duration(cfg.Recrawl.StalenessHours)*time.Hour,
				defaultCrawlOptions(cfg),
			)
		}()
	}

	apiServer := api.NewServer(service, cfg, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newSnapshotStore(ctx context.Context, cfg config.Config) (snapshot.Store, error) {
	switch cfg.Snapshots.Provider {
	case "memory":
		return memorystore.New(), nil
	case "local":
		return localstore.New(cfg.Snapshots.LocalDir)
	case "postgres":
		return postgresstore.New(ctx, postgresstore.Config{
			DSN:   cfg.Snapshots.PostgresDSN,
			Table: cfg.Snapshots.PostgresTable,
		})
	case "gcs":
		client, err := gcpstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client: %w", err)
		}
		return gcsstore.New(client, cfg.Snapshots.GCSBucket)
	default:
		return nil, fmt.Errorf("unknown snapshot provider %q", cfg.Snapshots.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (publish.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.Topic == "" {
		logger.Info("pubsub not configured, recording crawl events in memory")
		return memorypublisher.New(), func() {}, nil
	}
	client, err := gcppubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	pub, err := pubsubpublisher.New(client)
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Stop, nil
}

func defaultCrawlOptions(cfg config.Config) crawler.Options {
	respect := cfg.Crawler.RespectRobots
	render := cfg.Render.Enabled
	return crawler.Options{
		MaxPages:        cfg.Crawler.MaxPages,
		MaxDepth:        cfg.Crawler.MaxDepth,
		Concurrency:     cfg.Crawler.Concurrency,
		UserAgent:       cfg.Crawler.UserAgent,
		RespectRobots:   &respect,
		PerPageMaxLen:   cfg.Crawler.PerPageMaxLen,
		AggregateMaxLen: cfg.Crawler.AggregateMaxLen,
		RenderFallback:  &render,
		FetchTimeout:    cfg.FetchTimeout(),
		RenderTimeout:   cfg.RenderTimeout(),
	}
}

// Package main wires together the job extraction service binary.
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

	"go.uber.org/zap"

	"github.com/jobflow/jobflow/internal/api"
	"github.com/jobflow/jobflow/internal/cache"
	"github.com/jobflow/jobflow/internal/config"
	"github.com/jobflow/jobflow/internal/extraction"
	"github.com/jobflow/jobflow/internal/fetch"
	"github.com/jobflow/jobflow/internal/llm"
	"github.com/jobflow/jobflow/internal/logging"
	"github.com/jobflow/jobflow/internal/metrics"
	"github.com/jobflow/jobflow/internal/parse"
	"github.com/jobflow/jobflow/internal/pii"
	"github.com/jobflow/jobflow/internal/publisher"
	memorypublisher "github.com/jobflow/jobflow/internal/publisher/memory"
	pubsubpublisher "github.com/jobflow/jobflow/internal/publisher/pubsub"
	"github.com/jobflow/jobflow/internal/robots"
	"github.com/jobflow/jobflow/internal/storage"
	gcsblob "github.com/jobflow/jobflow/internal/storage/gcs"
	localblob "github.com/jobflow/jobflow/internal/storage/local"
	memoryblob "github.com/jobflow/jobflow/internal/storage/memory"
	"github.com/jobflow/jobflow/internal/store"
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
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userAgent := cfg.Extraction.UserAgent
	if userAgent == "" {
		userAgent = fetch.DefaultUserAgent
	}

	primary := fetch.NewPrimary(fetch.PrimaryConfig{
		UserAgent: userAgent,
		Timeout:   cfg.PrimaryTimeout(),
	}, logger.Named("fetch"))

	var (
		secondary extraction.Fetcher
		rendered  *fetch.Rendered
	)
	if cfg.Extraction.UseSecondaryFetch {
		rendered, err = fetch.NewRendered(fetch.RenderedConfig{
			UserAgent:         userAgent,
			NavigationTimeout: cfg.NavTimeout(),
			SettleDelay:       cfg.SettleDelay(),
			MaxParallel:       cfg.Headless.MaxParallel,
			DomainQPS:         cfg.Headless.DomainQPS,
		}, logger.Named("headless"))
		if err != nil {
			logger.Warn("rendered fetcher init failed; continuing without it", zap.Error(err))
		} else {
			secondary = rendered
		}
	}

	var (
		fieldExtractor extraction.FieldExtractor
		checker        extraction.QualityChecker
	)
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(ctx, llm.Config{
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: float32(cfg.LLM.Temperature),
		}, logger.Named("llm"))
		if err != nil {
			logger.Warn("llm client init failed; llm stages disabled", zap.Error(err))
		} else {
			fieldExtractor = llm.NewExtractor(client, logger.Named("llm"))
			checker = llm.NewChecker(client, logger.Named("llm"))
		}
	} else {
		logger.Info("no llm api key configured; llm stages disabled")
	}

	blob, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("blob store init failed", zap.Error(err))
	}

	jobs, err := newJobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("job store init failed", zap.Error(err))
	}
	defer jobs.Close()

	var pub publisher.Publisher
	if cfg.PubSub.Enabled {
		pubsubPub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			logger.Fatal("pubsub publisher init failed", zap.Error(err))
		}
		defer func() {
			_ = pubsubPub.Close()
		}()
		pub = pubsubPub
	} else {
		pub = memorypublisher.New()
	}

	pipeline := extraction.NewPipeline(extraction.Deps{
		Primary:   primary,
		Secondary: secondary,
		Parser:    parse.NewParser(),
		Robots:    robots.NewChecker(userAgent, time.Duration(cfg.Robots.TimeoutSeconds)*time.Second, logger.Named("robots")),
		LLM:       fieldExtractor,
		Checker:   checker,
		Redactor:  pii.NewRedactor(),
		Memo:      cache.NewDomainMemo(),
		Snapshots: storage.NewArchiver(blob, cfg.Storage.Prefix),
	}, logger.Named("pipeline"))

	apiServer := api.NewServer(pipeline, jobs, pub, api.Config{
		DefaultOptions:   cfg.Options(),
		BatchMaxParallel: cfg.Extraction.BatchMaxParallel,
		EventTopic:       cfg.PubSub.TopicName,
	}, logger.Named("api"))

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if rendered != nil {
		if err := rendered.Shutdown(shutdownCtx); err != nil {
			logger.Error("browser shutdown error", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

func newBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		return localblob.New(cfg.Storage.LocalDir)
	case "gcs":
		return gcsblob.New(ctx, cfg.Storage.GCSBucket)
	default:
		return memoryblob.NewBlobStore(), nil
	}
}

func newJobStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DB.DSN == "" {
		return store.NewMemoryStore(), nil
	}
	return store.NewPostgresStore(ctx, store.PostgresConfig{
		DSN:      cfg.DB.DSN,
		MaxConns: int32(cfg.DB.MaxOpenConns),
	})
}

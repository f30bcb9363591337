package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recruitly/screening-engine/internal/aggregation"
	apiserver "github.com/recruitly/screening-engine/internal/api_server"
	"github.com/recruitly/screening-engine/internal/auth"
	"github.com/recruitly/screening-engine/internal/config"
	"github.com/recruitly/screening-engine/internal/content"
	"github.com/recruitly/screening-engine/internal/events"
	handlers "github.com/recruitly/screening-engine/internal/handlers/v1alpha1"
	"github.com/recruitly/screening-engine/internal/jobcode"
	"github.com/recruitly/screening-engine/internal/scoring"
	"github.com/recruitly/screening-engine/internal/service"
	"github.com/recruitly/screening-engine/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/unidoc/unipdf/v3/common/license"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the screening api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		cleanup := setupLogging(cfg)
		defer cleanup()

		zap.S().Info("Starting API service")
		defer zap.S().Info("API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		st := store.NewStore(db)
		defer st.Close()

		if err := migrateDB(db, cfg); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		scorer, err := newScorer(ctx, cfg)
		if err != nil {
			zap.S().Fatalw("creating scoring client", "error", err)
		}

		fetcher, err := newFetcher(cfg)
		if err != nil {
			zap.S().Fatalw("creating resume content fetcher", "error", err)
		}

		aggregator, err := newAggregator(cfg)
		if err != nil {
			zap.S().Fatalw("creating aggregator", "error", err)
		}

		producer, err := newEventProducer(cfg)
		if err != nil {
			zap.S().Fatalw("creating event producer", "error", err)
		}
		defer func() { _ = producer.Close() }()

		screeningSrv := service.NewScreeningService(st, scorer, fetcher, aggregator,
			service.WithWorkers(cfg.Screening.Workers),
			service.WithScoringTimeout(cfg.Screening.ScoringTimeout),
			service.WithExclusiveRuns(cfg.Screening.ExclusiveRuns),
			service.WithEventPublisher(producer),
		)
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			if err := screeningSrv.Shutdown(sctx); err != nil {
				zap.S().Errorw("failed to stop screening runs", "error", err)
			}
		}()

		generator := jobcode.NewGenerator(st.JobOpening(), jobcode.WithMaxAttempts(cfg.Screening.JobCodeMaxAttempts))
		handler := handlers.NewServiceHandler(
			service.NewJobOpeningService(st, generator),
			service.NewResumeService(st),
			screeningSrv,
			service.NewPipelineService(st, producer),
			service.NewReportService(st),
			st,
		)

		authenticator, err := auth.NewAuthenticator(cfg.Auth)
		if err != nil {
			zap.S().Fatalw("creating authenticator", "error", err)
		}

		go service.NewReaper(screeningSrv, cfg.Screening.ReaperInterval, cfg.Screening.StaleRunAfter).Run(ctx)

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, handler, authenticator, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("Error running server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener, st, cfg.Service.LogLevel)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("failed to run metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}

func newScorer(ctx context.Context, cfg *config.Config) (scoring.Client, error) {
	switch cfg.Scoring.Provider {
	case "gemini":
		generator, err := scoring.NewGenerator(ctx, cfg.Scoring.APIKey, cfg.Scoring.Model)
		if err != nil {
			return nil, err
		}
		return scoring.NewGeminiClient(generator), nil
	case "keyword":
		return scoring.NewKeywordClient(), nil
	default:
		return nil, fmt.Errorf("unknown scoring provider %q", cfg.Scoring.Provider)
	}
}

// newFetcher reads resumes from the object store, with the extracted text
// cached in redis when an address is configured. Without an endpoint the
// service runs on an empty in-memory fetcher.
func newFetcher(cfg *config.Config) (content.Fetcher, error) {
	if key := cfg.Storage.PDFLicenseKey; key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			return nil, fmt.Errorf("loading pdf license: %w", err)
		}
	}

	if cfg.Storage.Endpoint == "" {
		zap.S().Warn("no resume storage endpoint configured, using in-memory content")
		return content.NewMemoryFetcher(nil), nil
	}

	var fetcher content.Fetcher
	fetcher, err := content.NewObjectStoreFetcher(
		content.WithEndpoint(cfg.Storage.Endpoint),
		content.WithBucket(cfg.Storage.Bucket),
		content.WithAccessKey(cfg.Storage.AccessKey),
		content.WithSecretKey(cfg.Storage.SecretKey),
		content.WithSSL(cfg.Storage.UseSSL),
		content.WithMaxObjectBytes(cfg.Storage.MaxObjectBytes),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		fetcher = content.NewCachedFetcher(fetcher, client, cfg.Cache.TTL)
	}
	return fetcher, nil
}

func newAggregator(cfg *config.Config) (*aggregation.Aggregator, error) {
	return aggregation.New(
		aggregation.WithThresholds(aggregation.Thresholds{
			Strong:   cfg.Screening.FitStrong,
			Moderate: cfg.Screening.FitModerate,
			Weak:     cfg.Screening.FitWeak,
		}),
		aggregation.WithPassThreshold(cfg.Screening.PassThreshold),
	)
}

func newEventProducer(cfg *config.Config) (*events.EventProducer, error) {
	var w events.Writer = &events.StdoutWriter{}
	if cfg.Events.AMQPURL != "" {
		amqpWriter, err := events.NewAMQPWriter(cfg.Events.AMQPURL, cfg.Events.Queue)
		if err != nil {
			return nil, err
		}
		w = amqpWriter
	}
	return events.NewEventProducer(w,
		events.WithOutputTopic(cfg.Events.Queue),
		events.WithSource("screening-api"),
	), nil
}

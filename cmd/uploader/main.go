package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mikrolab/s3uploader/internal/config"
	"github.com/mikrolab/s3uploader/internal/db"
	"github.com/mikrolab/s3uploader/internal/metrics"
	"github.com/mikrolab/s3uploader/internal/notify"
	"github.com/mikrolab/s3uploader/internal/pending"
	"github.com/mikrolab/s3uploader/internal/storage"
	"github.com/mikrolab/s3uploader/internal/uploader"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Info().
		Str("bucket", cfg.S3Bucket).
		Dur("interval", cfg.PollInterval).
		Msg("starting s3 image uploader")

	// Connect the pending-work source and apply migrations
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	repo := pending.NewRepository(pool, cfg.MaxRetries)

	// Credential provider: static keys from the environment, or the shared
	// credentials file rotated by an external process.
	var creds storage.CredentialProvider
	switch cfg.S3CredentialsSource {
	case "shared":
		creds = storage.SharedFileCredentials{Profile: cfg.S3CredentialsProfile}
	default:
		creds = storage.StaticCredentials{
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}
	}
	factory := storage.NewS3ClientFactory(creds, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket)

	notifier := notify.NewSlackNotifier(cfg.SlackWebhookURL, logger)

	// Optional Prometheus listener
	var recorder *metrics.Recorder
	if cfg.MetricsAddr != "" {
		recorder, err = metrics.NewRecorder(nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to register metrics")
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{
			Addr:        cfg.MetricsAddr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
		defer srv.Close()
	}

	orch := uploader.NewOrchestrator(repo, factory, notifier, recorder, logger, uploader.Options{
		Bucket:            cfg.S3Bucket,
		Interval:          cfg.PollInterval,
		BatchSize:         cfg.BatchSize,
		MeltdownThreshold: cfg.MeltdownThreshold,
	})

	err = orch.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info().Msg("uploader exited")
	case err != nil:
		logger.Fatal().Err(err).Msg("uploader stopped")
	}
}

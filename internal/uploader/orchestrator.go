// Package uploader drives the poll-upload-delete loop that moves pending
// image rows into object storage.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mikrolab/s3uploader/internal/metrics"
	"github.com/mikrolab/s3uploader/internal/notify"
	"github.com/mikrolab/s3uploader/internal/pending"
	"github.com/mikrolab/s3uploader/internal/storage"
	"github.com/mikrolab/s3uploader/internal/util"
)

// ErrMeltdown is returned when the storage backend keeps failing at the
// service level. The loop stops instead of hammering a dead service;
// supervision restarts the process.
var ErrMeltdown = errors.New("storage service meltdown detected")

// PendingSource is the pending-work capability the orchestrator drives:
// list eligible rows, delete one after a confirmed upload, and keep the
// failure bookkeeping. Implemented by pending.Repository.
type PendingSource interface {
	ListPending(ctx context.Context, limit int) ([]pending.Upload, error)
	Delete(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	RecordUploaded(ctx context.Context, u pending.Upload, bucket string) error
}

// Options tune the loop. Zero values fall back to the defaults the service
// has always run with.
type Options struct {
	Bucket            string
	Interval          time.Duration
	BatchSize         int
	MeltdownThreshold int
}

// Orchestrator owns the polling loop. It is single-threaded: one cycle runs
// to completion before the next tick is scheduled, so cycles never overlap
// and a slow cycle delays, never doubles, the polling.
type Orchestrator struct {
	repo     PendingSource
	clients  storage.ClientFactory
	notifier notify.Notifier
	recorder *metrics.Recorder
	logger   zerolog.Logger

	bucket            string
	interval          time.Duration
	batchSize         int
	meltdownThreshold int

	consecutiveServiceErrors int

	readFile func(string) ([]byte, error)
}

func NewOrchestrator(repo PendingSource, clients storage.ClientFactory, notifier notify.Notifier, recorder *metrics.Recorder, logger zerolog.Logger, opts Options) *Orchestrator {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MeltdownThreshold <= 0 {
		opts.MeltdownThreshold = 5
	}
	return &Orchestrator{
		repo:              repo,
		clients:           clients,
		notifier:          notifier,
		recorder:          recorder,
		logger:            logger,
		bucket:            opts.Bucket,
		interval:          opts.Interval,
		batchSize:         opts.BatchSize,
		meltdownThreshold: opts.MeltdownThreshold,
		readFile:          os.ReadFile,
	}
}

// Run executes cycles until ctx is cancelled or a meltdown is detected.
// Cycle-level failures (credential acquisition, pending list) are logged and
// retried on the next tick with no extra backoff.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info().
		Dur("interval", o.interval).
		Int("batch_size", o.batchSize).
		Str("bucket", o.bucket).
		Msg("upload loop started")

	timer := time.NewTimer(o.interval)
	defer timer.Stop()

	for {
		if err := o.RunCycle(ctx); err != nil {
			if errors.Is(err, ErrMeltdown) {
				o.notifier.Notify(ctx, "S3 uploader stopped", err.Error())
				return err
			}
			o.recorder.CycleError()
			o.logger.Error().Err(err).Msg("cycle aborted, retrying on next tick")
			o.notifier.Notify(ctx, "S3 upload cycle failed", err.Error())
		}

		// The next tick starts counting only after the cycle's work is done.
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(o.interval)

		select {
		case <-ctx.Done():
			o.logger.Info().Msg("upload loop stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle performs one pass: list pending rows, and if there are any,
// acquire one freshly credentialed client and transfer each row with it.
// An empty pending set constructs no client at all.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	o.recorder.Cycle()

	items, err := o.repo.ListPending(ctx, o.batchSize)
	if err != nil {
		return fmt.Errorf("list pending uploads: %w", err)
	}
	if len(items) == 0 {
		o.logger.Debug().Msg("no pending uploads")
		return nil
	}

	o.logger.Info().Int("count", len(items)).Msg("found pending uploads")

	store, err := o.clients.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire storage client: %w", err)
	}

	for i := range items {
		if err := o.transfer(ctx, store, &items[i]); err != nil {
			if errors.Is(err, ErrMeltdown) {
				return err
			}
			// Per-item failures are already logged and recorded on the row;
			// the rest of the batch still gets its attempt.
		}
	}
	return nil
}

// transfer moves one row's file into storage and deletes the row only after
// the object is confirmed present. A row that fails here keeps its place in
// the queue for the next cycle.
func (o *Orchestrator) transfer(ctx context.Context, store storage.ObjectStore, item *pending.Upload) error {
	logger := o.logger.With().
		Int64("id", item.ID).
		Str("key", item.Key()).
		Logger()

	data, err := o.readFile(item.LocalPath)
	if err != nil {
		// Missing local file: keep the row rather than silently dropping
		// work; operators see it via last_error.
		o.failItem(ctx, logger, item, fmt.Errorf("read local file %s: %w", item.LocalPath, err))
		return err
	}

	exists, err := store.ObjectExists(ctx, item.Key())
	if err != nil {
		merr := o.noteServiceError(err)
		o.failItem(ctx, logger, item, fmt.Errorf("head object: %w", err))
		if merr != nil {
			return merr
		}
		return err
	}
	if exists {
		logger.Info().Msg("object already in storage, removing row")
		o.consecutiveServiceErrors = 0
		if err := o.repo.Delete(ctx, item.ID); err != nil {
			logger.Error().Err(err).Msg("row delete failed for already-stored object")
			return err
		}
		return nil
	}

	contentType := ""
	if item.ContentType != nil {
		contentType = *item.ContentType
	}
	if contentType == "" {
		contentType = util.ContentTypeFor(item.LocalPath, data)
	}
	if !util.IsImageMIME(contentType) {
		// The queue is only ever fed image rows; anything else points at a
		// bad writer upstream. Upload it anyway.
		logger.Warn().Str("content_type", contentType).Msg("payload does not look like an image")
	}

	result, err := store.Upload(ctx, item.Key(), data, contentType)
	if err != nil {
		merr := o.noteServiceError(err)
		o.failItem(ctx, logger, item, fmt.Errorf("upload: %w", err))
		if merr != nil {
			return merr
		}
		return err
	}
	o.consecutiveServiceErrors = 0

	if err := o.repo.RecordUploaded(ctx, *item, o.bucket); err != nil {
		// The object is stored but unrecorded; the row stays and the next
		// cycle's head check resolves it without re-uploading.
		o.failItem(ctx, logger, item, err)
		return err
	}
	if err := o.repo.Delete(ctx, item.ID); err != nil {
		// The dangerous case: upload confirmed but the row survived. Safe
		// only because the destination key is stable, so the retry is a
		// no-op overwrite.
		logger.Error().Err(err).Msg("row delete failed after confirmed upload, duplicate attempt expected next cycle")
		return err
	}

	o.recorder.Upload(result.Size)
	logger.Info().
		Int64("bytes", result.Size).
		Str("content_type", contentType).
		Msg("uploaded and removed from queue")
	return nil
}

// failItem records a per-item failure on the row and in the log without
// aborting the cycle.
func (o *Orchestrator) failItem(ctx context.Context, logger zerolog.Logger, item *pending.Upload, cause error) {
	o.recorder.UploadError()
	logger.Error().Err(cause).Int("retry_count", item.RetryCount).Msg("transfer failed, row retained")
	if err := o.repo.MarkFailed(ctx, item.ID, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("failed to record failure on row")
	}
}

// noteServiceError counts consecutive service-level storage failures and
// trips the meltdown breaker at the threshold.
func (o *Orchestrator) noteServiceError(err error) error {
	if !storage.IsServiceUnavailable(err) {
		return nil
	}
	o.consecutiveServiceErrors++
	if o.consecutiveServiceErrors >= o.meltdownThreshold {
		return fmt.Errorf("%w: %d consecutive service-level failures", ErrMeltdown, o.consecutiveServiceErrors)
	}
	return nil
}

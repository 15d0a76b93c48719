package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/doc-seeding/internal/config"
	"github.com/doc-seeding/internal/docstore"
	"github.com/doc-seeding/internal/producer"
	"github.com/doc-seeding/internal/progress"
	"github.com/doc-seeding/internal/stats"
	"github.com/doc-seeding/internal/usergen"
	"github.com/doc-seeding/internal/worker"
)

// Result is the outcome of one run.
type Result struct {
	Requested int
	Inserted  []worker.InsertResult
	Verified  int
	// Failures holds every failed insert and verification with its cause.
	Failures   []worker.Failure
	Samples    int
	Summary    stats.Summary
	HasSamples bool
	Elapsed    time.Duration
}

type options struct {
	gen   producer.Generator
	newID func() string
}

// Option overrides a run default.
type Option func(*options)

// WithGenerator replaces the faker-backed record generator.
func WithGenerator(g producer.Generator) Option {
	return func(o *options) { o.gen = g }
}

// WithIDFunc replaces the uuid-based document id generator.
func WithIDFunc(f func() string) Option {
	return func(o *options) { o.newID = f }
}

// Run seeds cfg.RecordCount documents through client, verifies every
// document that was created, and logs the latency summary. The verify phase
// starts only after every insert has finished.
func Run(ctx context.Context, cfg config.Config, client docstore.Client, logger *slog.Logger, opts ...Option) *Result {
	o := options{newID: usergen.NewDocumentID}
	for _, opt := range opts {
		opt(&o)
	}
	if o.gen == nil {
		o.gen = usergen.New(0)
	}

	if !cfg.LevelRecognized() {
		logger.Warn("Unrecognized concurrency level, using default",
			"given", cfg.LevelName, "level", string(cfg.Level))
	}
	var verifyWorkers any = "unbounded"
	if cfg.VerifyWorkers > 0 {
		verifyWorkers = cfg.VerifyWorkers
	}
	logger.Info("Starting seeding run",
		"records", cfg.RecordCount,
		"level", string(cfg.Level),
		"insert_workers", cfg.Level.Workers(),
		"verify_workers", verifyWorkers,
		"rate_limit", cfg.RateLimit)

	runStart := time.Now()
	env := worker.Env{
		Target: worker.Target{
			Client:       client,
			DatabaseID:   cfg.DatabaseID,
			CollectionID: cfg.CollectionID,
		},
		Latency:  stats.NewLatencyLog(),
		Failures: worker.NewFailureLog(),
		Counters: &progress.Counters{},
		Logger:   logger,
	}

	progressCtx, stopProgress := context.WithCancel(ctx)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		progress.Run(progressCtx, logger, env.Counters, cfg.RecordCount, cfg.ProgressInterval)
	}()

	inserted := worker.Seed(ctx, env, cfg.RecordCount, cfg.Level.Workers(), o.gen, o.newID, producer.NewLimiter(cfg.RateLimit))
	logger.Info("Total documents inserted", "count", len(inserted))

	verified := worker.Verify(ctx, env, inserted, cfg.VerifyWorkers)
	logger.Info("Total documents verified", "count", verified)

	stopProgress()
	<-progressDone

	env.Latency.Report(logger)
	summary, ok := env.Latency.Summarize()
	return &Result{
		Requested:  cfg.RecordCount,
		Inserted:   inserted,
		Verified:   verified,
		Failures:   env.Failures.All(),
		Samples:    env.Latency.Len(),
		Summary:    summary,
		HasSamples: ok,
		Elapsed:    time.Since(runStart),
	}
}


// Package worker runs the two phases of a seeding run: concurrent inserts
// capped at a fixed worker count, then concurrent read-back verification.
// Every remote call adds one sample to the shared latency log; per-call
// failures are logged and recorded but never stop sibling calls.
package worker

import (
	"log/slog"

	"github.com/doc-seeding/internal/docstore"
	"github.com/doc-seeding/internal/progress"
	"github.com/doc-seeding/internal/stats"
)

// Target is the collection a run writes to.
type Target struct {
	Client       docstore.Client
	DatabaseID   string
	CollectionID string
}

// Env carries the per-run shared state into both phases.
type Env struct {
	Target
	Latency  *stats.LatencyLog
	Failures *FailureLog
	Counters *progress.Counters
	Logger   *slog.Logger
}

// InsertResult identifies a successfully created document and the email it
// was created with.
type InsertResult struct {
	DocumentID string
	Email      string
}

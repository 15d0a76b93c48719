package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doc-seeding/internal/stats"
)

// Verify re-reads every pair and returns how many came back with exactly the
// expected email. limit caps concurrent reads; limit <= 0 runs one goroutine
// per pair.
func Verify(ctx context.Context, env Env, pairs []InsertResult, limit int) int {
	var verified atomic.Int64
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, p := range pairs {
		g.Go(func() error {
			if verifyOne(ctx, env, p) {
				verified.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	return int(verified.Load())
}

func verifyOne(ctx context.Context, env Env, p InsertResult) bool {
	start := time.Now()
	doc, err := env.Client.GetDocument(ctx, env.DatabaseID, env.CollectionID, p.DocumentID)
	elapsed := time.Since(start)
	env.Latency.Add(elapsed)

	if err == nil {
		email, ok := doc.Field("email")
		switch {
		case !ok:
			err = ErrEmailMissing
		case email != p.Email:
			err = fmt.Errorf("%w: got %q, want %q", ErrEmailMismatch, email, p.Email)
		default:
			env.Counters.Verified.Add(1)
			env.Logger.Info("Verified document", "id", p.DocumentID, "email", email,
				stats.Millis("response_ms", ms(elapsed)))
			return true
		}
	}

	env.Counters.VerifyFailed.Add(1)
	env.Failures.add(Failure{Phase: PhaseVerify, DocumentID: p.DocumentID, Err: err})
	env.Logger.Error("Document verification failed", "id", p.DocumentID, "error", err)
	return false
}

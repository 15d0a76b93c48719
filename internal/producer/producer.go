package producer

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/doc-seeding/internal/usergen"
)

// Generator supplies synthetic records.
type Generator interface {
	Next() usergen.SeedRecord
}

// Job is one insert attempt handed to an insert worker.
type Job struct {
	DocumentID string
	Record     usergen.SeedRecord
}

// NewLimiter returns a limiter for perSecond jobs, or nil (unlimited) when
// perSecond <= 0.
func NewLimiter(perSecond int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Run sends count jobs on queue and closes it. Each record and id is built
// only once a worker is ready to take it, so with an unbuffered queue a record
// exists just before its insert call. Run stops early if ctx is done and
// returns the number of jobs sent.
func Run(ctx context.Context, count int, gen Generator, newID func() string, limiter *rate.Limiter, queue chan<- *Job) int {
	defer close(queue)
	sent := 0
	for sent < count {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return sent
			}
		}
		job := &Job{DocumentID: newID(), Record: gen.Next()}
		select {
		case <-ctx.Done():
			return sent
		case queue <- job:
			sent++
		}
	}
	return sent
}

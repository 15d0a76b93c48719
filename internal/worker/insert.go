package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/doc-seeding/internal/producer"
	"github.com/doc-seeding/internal/stats"
)

// Seed inserts count generated records using at most workers concurrent
// create calls and returns the documents that were created, in completion
// order. It returns once every attempt has finished.
func Seed(ctx context.Context, env Env, count, workers int, gen producer.Generator, newID func() string, limiter *rate.Limiter) []InsertResult {
	if count <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	workers = min(workers, count)

	queue := make(chan *producer.Job)
	go producer.Run(ctx, count, gen, newID, limiter, queue)

	var (
		mu      sync.Mutex
		results []InsertResult
		wg      sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				res, ok := insertOne(ctx, env, job)
				if !ok {
					continue
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return results
}

func insertOne(ctx context.Context, env Env, job *producer.Job) (InsertResult, bool) {
	start := time.Now()
	doc, err := env.Client.CreateDocument(ctx, env.DatabaseID, env.CollectionID, job.DocumentID, job.Record.Data())
	elapsed := time.Since(start)
	env.Latency.Add(elapsed)

	if err != nil {
		env.Counters.InsertFailed.Add(1)
		env.Failures.add(Failure{Phase: PhaseInsert, DocumentID: job.DocumentID, Err: err})
		env.Logger.Error("Failed to insert document", "id", job.DocumentID, "error", err)
		return InsertResult{}, false
	}

	id := doc.ID
	if id == "" {
		id = job.DocumentID
	}
	env.Counters.Inserted.Add(1)
	env.Logger.Info("Inserted", "id", id, stats.Millis("response_ms", ms(elapsed)))
	return InsertResult{DocumentID: id, Email: job.Record.Email}, true
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package producer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/doc-seeding/internal/usergen"
)

type seqGen struct{ n int }

func (g *seqGen) Next() usergen.SeedRecord {
	g.n++
	return usergen.SeedRecord{Name: "user", Email: fmt.Sprintf("u%d@example.com", g.n), Age: 20}
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestRunSendsCountAndCloses(t *testing.T) {
	queue := make(chan *Job)
	done := make(chan int)
	go func() { done <- Run(context.Background(), 5, &seqGen{}, seqIDs(), nil, queue) }()

	var got []*Job
	for job := range queue {
		got = append(got, job)
	}
	assert.Equal(t, 5, <-done)
	assert.Len(t, got, 5)
	assert.Equal(t, "id-1", got[0].DocumentID)
	assert.Equal(t, "u5@example.com", got[4].Record.Email)
}

func TestRunZeroCount(t *testing.T) {
	queue := make(chan *Job)
	go Run(context.Background(), 0, &seqGen{}, seqIDs(), nil, queue)
	_, open := <-queue
	assert.False(t, open)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	queue := make(chan *Job)
	done := make(chan int)
	go func() { done <- Run(ctx, 100, &seqGen{}, seqIDs(), nil, queue) }()

	<-queue
	cancel()
	select {
	case n := <-done:
		assert.Less(t, n, 100)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRunRateLimited(t *testing.T) {
	queue := make(chan *Job, 10)
	start := time.Now()
	Run(context.Background(), 3, &seqGen{}, seqIDs(), NewLimiter(20), queue)
	// Burst of 1 then two more at 50ms spacing.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Len(t, queue, 3)
}

func TestNewLimiterUnlimited(t *testing.T) {
	assert.Nil(t, NewLimiter(0))
	assert.NotNil(t, NewLimiter(5))
}

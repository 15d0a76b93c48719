package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doc-seeding/internal/docstore"
	"github.com/doc-seeding/internal/progress"
	"github.com/doc-seeding/internal/stats"
	"github.com/doc-seeding/internal/usergen"
)

// fakeClient stores documents in memory and records peak concurrency.
type fakeClient struct {
	delay     time.Duration
	failEvery int // fail every Nth create (1-based); 0 never

	mu       sync.Mutex
	docs     map[string]map[string]any
	creates  int
	inFlight atomic.Int32
	peak     atomic.Int32
	gets     atomic.Int32
}

func newFakeClient() *fakeClient {
	return &fakeClient{docs: make(map[string]map[string]any)}
}

func (f *fakeClient) enter() func() {
	n := f.inFlight.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeClient) CreateDocument(_ context.Context, _, _, id string, data map[string]any) (docstore.Document, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failEvery > 0 && f.creates%f.failEvery == 0 {
		return docstore.Document{}, errors.New("boom")
	}
	f.docs[id] = data
	return docstore.Document{ID: id, Data: data}, nil
}

func (f *fakeClient) GetDocument(_ context.Context, _, _, id string) (docstore.Document, error) {
	defer f.enter()()
	f.gets.Add(1)
	f.mu.Lock()
	data, ok := f.docs[id]
	f.mu.Unlock()
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func (f *fakeClient) Close() error { return nil }

type seqGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqGen) Next() usergen.SeedRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return usergen.SeedRecord{Name: "User", Email: fmt.Sprintf("user%d@example.com", g.n), Age: 30}
}

func seqIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("doc-%d", n.Add(1)) }
}

func newEnv(c docstore.Client) Env {
	return Env{
		Target:   Target{Client: c, DatabaseID: "db", CollectionID: "users"},
		Latency:  stats.NewLatencyLog(),
		Failures: NewFailureLog(),
		Counters: &progress.Counters{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSeed_AllSucceed(t *testing.T) {
	c := newFakeClient()
	env := newEnv(c)

	results := Seed(context.Background(), env, 3, 5, &seqGen{}, seqIDs(), nil)
	require.Len(t, results, 3)
	assert.Equal(t, 3, env.Latency.Len())
	assert.Empty(t, env.Failures.All())
	assert.EqualValues(t, 3, env.Counters.Inserted.Load())

	emails := make(map[string]bool)
	for _, r := range results {
		emails[r.Email] = true
		assert.Equal(t, c.docs[r.DocumentID]["email"], r.Email)
	}
	assert.Len(t, emails, 3)
}

func TestSeed_FailuresAreSkipped(t *testing.T) {
	c := newFakeClient()
	c.failEvery = 2
	env := newEnv(c)

	results := Seed(context.Background(), env, 5, 1, &seqGen{}, seqIDs(), nil)
	assert.Len(t, results, 3)
	assert.Equal(t, 5, env.Latency.Len(), "one sample per attempt")
	assert.Equal(t, 2, env.Failures.Count(PhaseInsert))
	assert.EqualValues(t, 2, env.Counters.InsertFailed.Load())
	for _, f := range env.Failures.All() {
		assert.EqualError(t, f.Err, "boom")
	}
}

func TestSeed_ZeroCount(t *testing.T) {
	env := newEnv(newFakeClient())
	assert.Empty(t, Seed(context.Background(), env, 0, 5, &seqGen{}, seqIDs(), nil))
	assert.Zero(t, env.Latency.Len())
}

func TestSeed_RespectsWorkerCap(t *testing.T) {
	for _, workers := range []int{5, 10, 20} {
		t.Run(fmt.Sprint(workers), func(t *testing.T) {
			c := newFakeClient()
			c.delay = 5 * time.Millisecond
			results := Seed(context.Background(), newEnv(c), 100, workers, &seqGen{}, seqIDs(), nil)
			assert.Len(t, results, 100)
			assert.LessOrEqual(t, int(c.peak.Load()), workers)
			assert.Greater(t, int(c.peak.Load()), 1, "inserts should overlap")
		})
	}
}

func TestVerify_AllMatch(t *testing.T) {
	c := newFakeClient()
	env := newEnv(c)
	pairs := Seed(context.Background(), env, 4, 2, &seqGen{}, seqIDs(), nil)

	assert.Equal(t, 4, Verify(context.Background(), env, pairs, 0))
	assert.Equal(t, 8, env.Latency.Len())
	assert.EqualValues(t, 4, env.Counters.Verified.Load())
}

func TestVerify_FailureKinds(t *testing.T) {
	c := newFakeClient()
	c.docs["ok"] = map[string]any{"email": "a@example.com"}
	c.docs["case"] = map[string]any{"email": "A@example.com"}
	c.docs["null"] = map[string]any{"email": nil}
	c.docs["none"] = map[string]any{"Name": "x"}
	env := newEnv(c)

	pairs := []InsertResult{
		{DocumentID: "ok", Email: "a@example.com"},
		{DocumentID: "case", Email: "a@example.com"},
		{DocumentID: "null", Email: "a@example.com"},
		{DocumentID: "none", Email: "a@example.com"},
		{DocumentID: "gone", Email: "a@example.com"},
	}
	assert.Equal(t, 1, Verify(context.Background(), env, pairs, 0))
	assert.Equal(t, 5, env.Latency.Len())

	byID := make(map[string]error)
	for _, f := range env.Failures.All() {
		assert.Equal(t, PhaseVerify, f.Phase)
		byID[f.DocumentID] = f.Err
	}
	require.Len(t, byID, 4)
	assert.ErrorIs(t, byID["case"], ErrEmailMismatch)
	assert.ErrorIs(t, byID["null"], ErrEmailMissing)
	assert.ErrorIs(t, byID["none"], ErrEmailMissing)
	assert.ErrorIs(t, byID["gone"], docstore.ErrNotFound)
}

func TestVerify_Limit(t *testing.T) {
	c := newFakeClient()
	c.delay = 5 * time.Millisecond
	pairs := make([]InsertResult, 30)
	for i := range pairs {
		id := fmt.Sprintf("d%d", i)
		c.docs[id] = map[string]any{"email": id}
		pairs[i] = InsertResult{DocumentID: id, Email: id}
	}

	assert.Equal(t, 30, Verify(context.Background(), newEnv(c), pairs, 3))
	assert.LessOrEqual(t, int(c.peak.Load()), 3)
}

func TestVerify_UnboundedByDefault(t *testing.T) {
	c := newFakeClient()
	c.delay = 20 * time.Millisecond
	pairs := make([]InsertResult, 40)
	for i := range pairs {
		id := fmt.Sprintf("d%d", i)
		c.docs[id] = map[string]any{"email": id}
		pairs[i] = InsertResult{DocumentID: id, Email: id}
	}

	assert.Equal(t, 40, Verify(context.Background(), newEnv(c), pairs, 0))
	assert.Greater(t, int(c.peak.Load()), 20, "verification is not capped at the insert tier")
}

func TestVerify_Idempotent(t *testing.T) {
	c := newFakeClient()
	env := newEnv(c)
	pairs := Seed(context.Background(), env, 6, 3, &seqGen{}, seqIDs(), nil)
	c.docs[pairs[0].DocumentID]["email"] = "changed@example.com"

	first := Verify(context.Background(), env, pairs, 0)
	second := Verify(context.Background(), env, pairs, 0)
	assert.Equal(t, 5, first)
	assert.Equal(t, first, second)
}

func TestVerify_Empty(t *testing.T) {
	env := newEnv(newFakeClient())
	assert.Zero(t, Verify(context.Background(), env, nil, 0))
	assert.Zero(t, env.Latency.Len())
}

func TestFailureError(t *testing.T) {
	f := Failure{Phase: PhaseInsert, DocumentID: "x", Err: docstore.ErrConflict}
	assert.Equal(t, "insert x: document already exists", f.Error())
	assert.ErrorIs(t, f, docstore.ErrConflict)
}

// Package stats collects per-call response times and summarizes them.
package stats

import (
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"
)

// LatencyLog is an append-only list of response times in milliseconds. It is
// safe for concurrent use.
type LatencyLog struct {
	mu      sync.Mutex
	samples []float64
}

// NewLatencyLog returns an empty log.
func NewLatencyLog() *LatencyLog {
	return &LatencyLog{}
}

// Add records one call's elapsed time.
func (l *LatencyLog) Add(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	l.mu.Lock()
	l.samples = append(l.samples, ms)
	l.mu.Unlock()
}

// Len returns the number of samples.
func (l *LatencyLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}

// Samples returns a copy of the recorded samples.
func (l *LatencyLog) Samples() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]float64, len(l.samples))
	copy(out, l.samples)
	return out
}

// Summary of a LatencyLog, all values in milliseconds.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
	P99   float64
}

// Summarize computes the summary. ok is false when there are no samples.
func (l *LatencyLog) Summarize() (s Summary, ok bool) {
	samples := l.Samples()
	if len(samples) == 0 {
		return Summary{}, false
	}
	sort.Float64s(samples)

	var total float64
	for _, v := range samples {
		total += v
	}
	idx := int(float64(len(samples)) * 0.99)
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return Summary{
		Count: len(samples),
		Min:   samples[0],
		Max:   samples[len(samples)-1],
		Mean:  total / float64(len(samples)),
		P99:   samples[idx],
	}, true
}

// Report logs the slowest, fastest and average response time, or a single
// line when nothing was recorded.
func (l *LatencyLog) Report(logger *slog.Logger) {
	s, ok := l.Summarize()
	if !ok {
		logger.Info("No response times recorded.")
		return
	}
	logger.Info("Slowest request", Millis("ms", s.Max))
	logger.Info("Fastest request", Millis("ms", s.Min))
	logger.Info("Average request time", Millis("ms", s.Mean), "samples", s.Count)
	logger.Debug("P99 request time", Millis("ms", s.P99))
}

// Millis formats a millisecond value with two decimals.
func Millis(key string, ms float64) slog.Attr {
	return slog.String(key, strconv.FormatFloat(ms, 'f', 2, 64))
}

// Since returns the attribute for the time elapsed since start.
func Since(key string, start time.Time) slog.Attr {
	return Millis(key, float64(time.Since(start))/float64(time.Millisecond))
}

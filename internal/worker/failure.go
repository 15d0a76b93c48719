package worker

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrEmailMissing  = errors.New("email is missing or null")
	ErrEmailMismatch = errors.New("email mismatch")
)

// Phase names the run phase a failure happened in.
type Phase string

const (
	PhaseInsert Phase = "insert"
	PhaseVerify Phase = "verify"
)

// Failure is one failed insert or verification.
type Failure struct {
	Phase      Phase
	DocumentID string
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Phase, f.DocumentID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// FailureLog collects failures from concurrent workers.
type FailureLog struct {
	mu    sync.Mutex
	items []Failure
}

// NewFailureLog returns an empty log.
func NewFailureLog() *FailureLog {
	return &FailureLog{}
}

func (l *FailureLog) add(f Failure) {
	l.mu.Lock()
	l.items = append(l.items, f)
	l.mu.Unlock()
}

// All returns a copy of the recorded failures in arrival order.
func (l *FailureLog) All() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Failure, len(l.items))
	copy(out, l.items)
	return out
}

// Count returns the number of failures in the given phase.
func (l *FailureLog) Count(phase Phase) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, f := range l.items {
		if f.Phase == phase {
			n++
		}
	}
	return n
}

package progress

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultInterval between progress lines.
const DefaultInterval = 5 * time.Second

// Counters are updated by the insert and verify workers.
type Counters struct {
	Inserted     atomic.Int64
	InsertFailed atomic.Int64
	Verified     atomic.Int64
	VerifyFailed atomic.Int64
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Inserted     int64
	InsertFailed int64
	Verified     int64
	VerifyFailed int64
}

// Snapshot reads all counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Inserted:     c.Inserted.Load(),
		InsertFailed: c.InsertFailed.Load(),
		Verified:     c.Verified.Load(),
		VerifyFailed: c.VerifyFailed.Load(),
	}
}

// Run logs interval and cumulative progress every interval until ctx is done.
// A non-positive interval disables reporting.
func Run(ctx context.Context, logger *slog.Logger, c *Counters, requested int, interval time.Duration) {
	if interval <= 0 {
		return
	}
	var prev Snapshot
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur := c.Snapshot()
		logger.Info("Progress (this interval)",
			"inserted", cur.Inserted-prev.Inserted,
			"insert_failed", cur.InsertFailed-prev.InsertFailed,
			"verified", cur.Verified-prev.Verified,
			"verify_failed", cur.VerifyFailed-prev.VerifyFailed)
		logger.Info("Progress (cumulative)",
			"requested", requested,
			"inserted", cur.Inserted,
			"insert_failed", cur.InsertFailed,
			"verified", cur.Verified,
			"verify_failed", cur.VerifyFailed)
		prev = cur
	}
}

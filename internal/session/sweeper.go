package session

import (
	"context"
	"time"

	"github.com/nx-media/playcore/internal/domain"
)

// Sweeper proactively garbage-collects expired sessions and their
// generators (spec §7 "Expired sessions are garbage-collected lazily when
// touched and proactively by a single sweeper task").
type Sweeper struct {
	orchestrator *Orchestrator
	interval     time.Duration
}

// DefaultSweepInterval is how often the sweeper scans for expired sessions.
const DefaultSweepInterval = 5 * time.Minute

func NewSweeper(o *Orchestrator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{orchestrator: o, interval: interval}
}

// Run blocks, sweeping on a ticker until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	o := s.orchestrator
	expired, err := o.sessions.Expired(ctx, o.now())
	if err != nil {
		return
	}
	for _, sess := range expired {
		_ = o.sessions.Delete(ctx, sess.ID)
		if sess.GeneratorID != "" {
			_ = o.generators.Delete(ctx, sess.GeneratorID)
			o.cursorsMu.Lock()
			delete(o.cursors, sess.GeneratorID)
			o.cursorsMu.Unlock()
		}
		o.locksMu.Lock()
		delete(o.locks, sess.ID)
		o.locksMu.Unlock()
		o.publish(ctx, domain.EventSessionEnded, nil)
	}
}

// Package reaper deletes homes that have stayed empty past the retention
// window and purges expired sessions.
package reaper

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/hearth/internal/apperr"
	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/store"
)

const (
	DefaultInterval  = time.Hour
	DefaultRetention = 30 * 24 * time.Hour
)

type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

type Result struct {
	HomesDeleted   []string
	SessionsPurged int64
}

// Reaper runs Sweep on a ticker. A failed sweep is logged and counted and
// the loop carries on.
type Reaper struct {
	mu        sync.RWMutex
	homes     *store.HomeStore
	sessions  *store.SessionStore
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	return &Reaper{
		homes:     store.NewHomeStore(db),
		sessions:  store.NewSessionStore(db),
		interval:  cfg.Interval,
		retention: cfg.Retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep deletes homes whose last member left strictly before now minus the
// retention window, then expired sessions.
func (r *Reaper) Sweep(ctx context.Context) (Result, error) {
	now := r.now()
	cutoff := now.Add(-r.retention)

	var res Result
	ids, err := r.homes.DeleteAbandonedBefore(ctx, cutoff)
	if err != nil {
		metrics.ReaperSweeps.WithLabelValues("error").Inc()
		return res, apperr.Wrap(err, "reap homes", "cutoff", cutoff)
	}
	res.HomesDeleted = ids
	metrics.HomesReaped.Add(float64(len(ids)))

	n, err := r.sessions.DeleteExpired(ctx, now)
	if err != nil {
		metrics.ReaperSweeps.WithLabelValues("error").Inc()
		return res, apperr.Wrap(err, "purge sessions")
	}
	res.SessionsPurged = n
	metrics.SessionsPurged.Add(float64(n))

	metrics.ReaperSweeps.WithLabelValues("ok").Inc()
	return res, nil
}

// Start sweeps once immediately and then every interval until Stop or ctx
// cancellation.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	r.mu.RLock()
	cancel := r.cancel
	done := r.done
	r.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (r *Reaper) tick(ctx context.Context) {
	res, err := r.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		apperr.Log(r.logger, "reaper sweep failed", err)
		return
	}
	if len(res.HomesDeleted) > 0 || res.SessionsPurged > 0 {
		r.logger.Info("reaper sweep",
			"homes_deleted", len(res.HomesDeleted),
			"sessions_purged", res.SessionsPurged,
		)
	}
}

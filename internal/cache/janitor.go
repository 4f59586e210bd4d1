package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rcron "github.com/robfig/cron/v3"
)

// Sweeper is anything with expired entries to evict.
type Sweeper interface {
	Name() string
	ClearExpired(ctx context.Context) (int, error)
}

// Janitor runs ClearExpired on every registered sweeper on a cron schedule.
type Janitor struct {
	cron     *rcron.Cron
	sweepers []Sweeper
	logger   *slog.Logger
}

// NewJanitor parses schedule ("@every 1m", "*/5 * * * *", ...) and registers
// the sweep job. Call Start to begin running it.
func NewJanitor(schedule string, sweepers ...Sweeper) (*Janitor, error) {
	j := &Janitor{
		cron:     rcron.New(),
		sweepers: sweepers,
		logger:   slog.Default().With("component", "cache-janitor"),
	}
	if _, err := j.cron.AddFunc(schedule, j.Sweep); err != nil {
		return nil, fmt.Errorf("parsing janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("cache janitor started", "caches", len(j.sweepers))
}

// Stop halts the schedule and returns a context done once a running sweep
// has finished.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

// Sweep clears expired entries from every sweeper once.
func (j *Janitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, s := range j.sweepers {
		n, err := s.ClearExpired(ctx)
		if err != nil {
			j.logger.Warn("sweep failed", "cache", s.Name(), "error", err)
			continue
		}
		if n > 0 {
			j.logger.Debug("expired entries evicted", "cache", s.Name(), "count", n)
		}
	}
}

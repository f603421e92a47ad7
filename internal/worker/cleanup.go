package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CleanupTask deletes expired rows and returns how many it removed.
type CleanupTask struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

type Cleaner struct {
	tasks  []CleanupTask
	logger zerolog.Logger
}

func NewCleaner(logger zerolog.Logger, tasks ...CleanupTask) *Cleaner {
	return &Cleaner{tasks: tasks, logger: logger.With().Str("component", "cleanup").Logger()}
}

func (c *Cleaner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every task; a failing task does not stop the others.
func (c *Cleaner) RunOnce(ctx context.Context) map[string]int64 {
	removed := make(map[string]int64, len(c.tasks))
	for _, t := range c.tasks {
		n, err := t.Run(ctx)
		if err != nil {
			c.logger.Error().Err(err).Str("task", t.Name).Msg("Cleanup failed")
			continue
		}
		removed[t.Name] = n
		if n > 0 {
			c.logger.Info().Str("task", t.Name).Int64("removed", n).Msg("Cleanup done")
		}
	}
	return removed
}

package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/politia/politia/internal/errors"
)

// StartOptimizer launches a background loop that runs optimize once per hour.
// See https://www.sqlite.org/pragma.html#pragma_optimize. It returns
// immediately; the loop stops when ctx is cancelled.
func (db *Database) StartOptimizer(ctx context.Context) {
	go db.optimizeLoop(ctx)
}

func (db *Database) optimizeLoop(ctx context.Context) {
	for {
		start := time.Now()
		if _, err := db.ReadWrite.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			err = errors.Wrap(err, "optimize database")
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to optimize database", errors.SlogError(err))
		} else {
			db.logger.LogAttrs(ctx, slog.LevelDebug, "optimized database",
				slog.Duration("duration", time.Since(start)))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Hour):
			continue
		}
	}
}

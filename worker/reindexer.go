package worker

import (
	"context"
	"log/slog"
	"time"
)

// Rebuilder rebuilds the index from the store.
type Rebuilder interface {
	Reindex(ctx context.Context) (uint64, error)
}

// Reindexer periodically rebuilds the index from scratch, which also picks
// up articles written to a shared store by other processes.
type Reindexer struct {
	Index    Rebuilder
	Interval time.Duration
}

func (w *Reindexer) Name() string { return "reindexer" }

func (w *Reindexer) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			v, err := w.Index.Reindex(ctx)
			if err != nil {
				slog.Error("reindexer: rebuild failed", "err", err)
				continue
			}
			slog.Info("reindexer: rebuilt", "version", v)
		}
	}
}

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsdesk/internal/model"

	"github.com/robfig/cron/v3"
)

// Ingester runs one named source through the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, source string) (model.IngestReport, error)
}

// Collector ingests one source either every Interval or on a cron Schedule.
// Schedule wins when both are set.
type Collector struct {
	Source   string
	Ingester Ingester
	Interval time.Duration
	Schedule string // standard 5-field cron spec
}

func (w *Collector) Name() string { return "collector:" + w.Source }

func (w *Collector) Start(ctx context.Context) error {
	if w.Schedule != "" {
		return w.startCron(ctx)
	}
	if w.Interval <= 0 {
		w.Interval = 10 * time.Minute
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Collector) startCron(ctx context.Context) error {
	if _, err := cron.ParseStandard(w.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", w.Schedule, err)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.Schedule, func() { w.runOnce(ctx) }); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	// Wait for a run in progress to finish.
	<-c.Stop().Done()
	return nil
}

func (w *Collector) runOnce(ctx context.Context) {
	r, err := w.Ingester.Ingest(ctx, w.Source)
	if err != nil {
		slog.Error("collector: ingest error", "source", w.Source, "run", r.RunID, "err", err)
		return
	}
	slog.Info("collector: ingest completed", "source", w.Source, "added", r.Added, "updated", r.Updated, "index_version", r.IndexVersion)
}

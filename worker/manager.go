// Package worker runs the long-lived background tasks of serve: scheduled
// ingestion, periodic reindexing and the HTTP server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Worker runs until ctx is cancelled. A non-nil error means it stopped early.
type Worker interface {
	Name() string
	Start(ctx context.Context) error
}

// Manager starts and supervises a set of workers.
type Manager struct {
	workers []Worker
}

func NewManager(ws ...Worker) *Manager {
	return &Manager{workers: ws}
}

// Start blocks until ctx is cancelled and every worker has returned. Errors
// from workers that stopped early are joined into the result.
func (m *Manager) Start(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, w := range m.workers {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("worker: started", "worker", w.Name())
			if err := w.Start(ctx); err != nil {
				slog.Error("worker: stopped with error", "worker", w.Name(), "err", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
				mu.Unlock()
				return
			}
			slog.Info("worker: stopped", "worker", w.Name())
		}()
	}
	// Wait for context cancellation then wait for workers to exit.
	<-ctx.Done()
	wg.Wait()
	return errors.Join(errs...)
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/api"
	"newsdesk/internal/metrics"
	"newsdesk/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the ingestion workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if serveAddr != "" {
			cfg.API.Addr = serveAddr
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		m := metrics.New(prometheus.NewRegistry())
		svc, err := openService(ctx, cfg, m)
		if err != nil {
			return err
		}
		defer svc.Close()

		ws := []worker.Worker{}
		for _, spec := range sourceSpecs(cfg) {
			c := &worker.Collector{
				Source:   spec.source.Name(),
				Ingester: svc,
				Schedule: spec.schedule.Schedule,
			}
			if c.Schedule == "" {
				d, err := time.ParseDuration(spec.schedule.FetchInterval)
				if err != nil {
					return fmt.Errorf("invalid fetch_interval for %s: %w", c.Source, err)
				}
				c.Interval = d
			}
			slog.Info("starting collector", "source", c.Source, "interval", c.Interval, "schedule", c.Schedule)
			ws = append(ws, c)
		}

		if cfg.Index.RebuildInterval != "" {
			d, err := time.ParseDuration(cfg.Index.RebuildInterval)
			if err != nil {
				return fmt.Errorf("invalid index.rebuild_interval: %w", err)
			}
			ws = append(ws, &worker.Reindexer{Index: svc, Interval: d})
		}

		router := api.NewRouter(svc, api.Options{
			IngestRPS:   cfg.API.IngestRPS,
			IngestBurst: cfg.API.IngestBurst,
			Metrics:     m.Handler(),
		})
		ws = append(ws, &worker.HTTPServer{Addr: cfg.API.Addr, Handler: router})
		slog.Info("serving API", "addr", cfg.API.Addr)

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		go func() {
			select {
			case s := <-sigc:
				slog.Info("received signal, shutting down", "signal", s.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides api.addr)")
	rootCmd.AddCommand(serveCmd)
}

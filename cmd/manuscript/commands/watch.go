package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Index         string        `arg:"" optional:"" help:"Index file listing the members (default: garden.index)"`
	Output        string        `short:"o" help:"Output directory (default: garden.directory)"`
	Debounce      time.Duration `help:"Quiet period before a rebuild" default:"300ms"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address (default: metrics.listen)"`
	DryRun        bool          `name:"dry-run" help:"Skip the converter"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	logger := root.Logger()
	index, outDir := gardenPaths(root, cfg, w.Index, w.Output)

	listen := w.MetricsListen
	if listen == "" {
		listen = cfg.Metrics.Listen
	}
	m := newMetrics(listen != "" || cfg.Metrics.Textfile != "")
	if listen != "" {
		stop := serveMetrics(g.Context, listen, m, logger)
		defer stop()
	}

	garden := newGarden(root, cfg, w.DryRun, m.recorder)
	exclude := []string{outDir, root.Resolve(cfg.Output.Directory)}
	if cfg.Output.WorkDir != "" {
		exclude = append(exclude, root.Resolve(cfg.Output.WorkDir))
	}

	return watch.Run(g.Context, watch.Options{
		Root:     root.Resolve("."),
		Exclude:  exclude,
		Debounce: w.Debounce,
		Logger:   logger,
	}, func(ctx context.Context) error {
		summary, err := garden.Build(ctx, index, outDir)
		m.flush(root.Resolve(cfg.Metrics.Textfile), logger)
		if err != nil {
			return err
		}
		return printSummary(g, summary)
	})
}

// serveMetrics exposes the registry until ctx is done or stop is called.
func serveMetrics(ctx context.Context, addr string, m metricsSink, logger *slog.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(m.registry))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics", logfields.Path(addr+"/metrics"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

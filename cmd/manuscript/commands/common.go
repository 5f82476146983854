package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/manuscript/internal/config"
	"git.home.luguber.info/inful/manuscript/internal/convert"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
)

// Global is shared state handed to every command.
type Global struct {
	Logger  *slog.Logger
	Context context.Context
	// Out receives command output meant for the user, as opposed to logs.
	Out io.Writer
}

// CLI is the root command.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path; relative manuscript paths resolve against its directory" default:"manuscript.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `help:"Log format (text or json); overrides the configuration"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build     BuildCmd     `cmd:"" help:"Build the main text or the supporting information with pandoc"`
	Garden    GardenCmd    `cmd:"" help:"Build a linked note collection from an index file"`
	Citations CitationsCmd `cmd:"" help:"List the literature citations of a file"`
	Check     CheckCmd     `cmd:"" help:"Number figures and tables across the collection without converting"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild the note collection whenever sources change"`
	Init      InitCmd      `cmd:"" help:"Write an example configuration file"`

	logger *slog.Logger
}

// AfterApply runs after flag parsing; it sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	c.setLogger(level, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

func (c *CLI) setLogger(level slog.Level, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	c.logger = slog.New(handler)
	slog.SetDefault(c.logger)
}

// Logger returns the configured logger.
func (c *CLI) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// LoadConfig reads the configuration, falling back to defaults when the file
// is absent, and applies its logging settings unless flags override them.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to load configuration").
			Fatal().WithContext("path", c.Config).Build()
	}

	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	c.setLogger(level, format)
	c.Logger().Debug("Configuration loaded", logfields.Path(c.Config))
	return cfg, nil
}

// Resolve makes p relative to the configuration file's directory.
func (c *CLI) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(c.Config), p)
}

// newPandoc builds the converter described by cfg.
func (c *CLI) newPandoc(cfg *config.Config) *convert.Pandoc {
	p := &convert.Pandoc{Binary: cfg.Pandoc.Binary, Logger: c.Logger()}
	if cfg.Pandoc.Defaults != "" {
		p.Defaults = c.Resolve(cfg.Pandoc.Defaults)
	}
	if cfg.Pandoc.LuaFilter != "" {
		p.LuaFilter = c.Resolve(cfg.Pandoc.LuaFilter)
	}
	return p
}

// metricsSink is a recorder plus the registry it reports into.
type metricsSink struct {
	recorder metrics.Recorder
	registry *prom.Registry
}

// newMetrics returns a Prometheus-backed sink when enabled, a no-op one otherwise.
func newMetrics(enabled bool) metricsSink {
	if !enabled {
		return metricsSink{recorder: metrics.NoopRecorder{}}
	}
	reg := prom.NewRegistry()
	return metricsSink{recorder: metrics.NewPrometheusRecorder(reg), registry: reg}
}

// flush writes the textfile when one is configured.
func (m metricsSink) flush(path string, logger *slog.Logger) {
	if m.registry == nil || path == "" {
		return
	}
	if err := metrics.WriteTextfile(m.registry, path); err != nil {
		logger.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(err))
	}
}

// Package config loads manuscript.yaml.
//
// Loading order: .env files (existing environment wins), ${VAR} expansion of
// the YAML text, decoding over Defaults, MANUSCRIPT_* environment overrides,
// then validation.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "manuscript.yaml"

// Environment overrides.
const (
	EnvLogLevel = "MANUSCRIPT_LOG_LEVEL"
	EnvPandoc   = "MANUSCRIPT_PANDOC"
	EnvJobs     = "MANUSCRIPT_JOBS"
)

// ErrNotFound is returned by Load when the file does not exist.
var ErrNotFound = errors.New("configuration file not found")

// Config is the manuscript workspace configuration.
type Config struct {
	Sources Sources       `yaml:"sources"`
	Pandoc  PandocConfig  `yaml:"pandoc"`
	Output  OutputConfig  `yaml:"output"`
	Garden  GardenConfig  `yaml:"garden"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// Sources names the manuscript files.
type Sources struct {
	Frontmatter string `yaml:"frontmatter"`
	Main        string `yaml:"main"`
	SI          string `yaml:"si"`
	// Extension is appended to inclusion targets without one.
	Extension string `yaml:"extension"`
}

// PandocConfig configures the converter.
type PandocConfig struct {
	Binary    string `yaml:"binary"`
	Defaults  string `yaml:"defaults"`
	LuaFilter string `yaml:"lua_filter"`
}

// OutputConfig configures where single-document builds go.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// WorkDir keeps intermediate files at a fixed path when set.
	WorkDir string `yaml:"work_dir,omitempty"`
	Figures string `yaml:"figures"`
}

// GardenConfig configures collection builds.
type GardenConfig struct {
	Index     string `yaml:"index"`
	Directory string `yaml:"directory"`
	Prefix    string `yaml:"prefix"`
	// Jobs bounds parallel member conversion. 1 is sequential.
	Jobs int `yaml:"jobs"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	// Textfile receives a node-exporter textfile after each build when set.
	Textfile string `yaml:"textfile,omitempty"`
	// Listen serves /metrics during watch when set, e.g. ":9102".
	Listen string `yaml:"listen,omitempty"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Sources: Sources{
			Frontmatter: "00_frontmatter.md",
			Main:        "01_maintext.md",
			SI:          "02_supp_info.md",
			Extension:   ".md",
		},
		Pandoc: PandocConfig{
			Binary:    "pandoc",
			Defaults:  "resources/config.yaml",
			LuaFilter: "resources/pdf2png.lua",
		},
		Output: OutputConfig{
			Directory: "export",
			Figures:   "figures",
		},
		Garden: GardenConfig{
			Index:     "garden.md",
			Directory: "garden",
			Prefix:    "garden",
			Jobs:      1,
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Load reads path. A missing file yields ErrNotFound.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault is Load that falls back to Defaults when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		slog.Debug("No configuration file, using defaults", "path", path)
		cfg = Defaults()
		applyEnv(cfg)
		return cfg, cfg.Validate()
	}
	return cfg, err
}

// Parse decodes YAML over Defaults, after ${VAR} expansion.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks what decoding cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.Sources.Main == "" {
		errs = append(errs, errors.New("sources.main must be set"))
	}
	if c.Sources.Extension != "" && !strings.HasPrefix(c.Sources.Extension, ".") {
		errs = append(errs, fmt.Errorf("sources.extension %q must start with a dot", c.Sources.Extension))
	}
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output.directory must be set"))
	}
	if c.Garden.Prefix == "" {
		errs = append(errs, errors.New("garden.prefix must be set"))
	}
	if c.Garden.Jobs < 1 {
		errs = append(errs, fmt.Errorf("garden.jobs must be at least 1, got %d", c.Garden.Jobs))
	}
	// The garden directory is wiped on every build.
	if d := filepath.Clean(c.Garden.Directory); d == "." || d == "/" {
		errs = append(errs, fmt.Errorf("garden.directory %q must be a dedicated subdirectory", c.Garden.Directory))
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// loadEnvFiles loads .env and .env.local from dir. Variables already set in
// the process environment are left alone.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment file", "path", path)
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
	if v := os.Getenv(EnvPandoc); v != "" {
		cfg.Pandoc.Binary = v
	}
	if v := os.Getenv(EnvJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("Ignoring invalid jobs override", "env", EnvJobs, "value", v)
			return
		}
		cfg.Garden.Jobs = n
	}
}

// Init writes the default configuration to path as a starting point.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

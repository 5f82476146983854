package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/manuscript/internal/assemble"
	"git.home.luguber.info/inful/manuscript/internal/config"
	"git.home.luguber.info/inful/manuscript/internal/convert"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// GardenCmd implements the 'garden' command.
type GardenCmd struct {
	Index  string `arg:"" optional:"" help:"Index file listing the members (default: garden.index)"`
	Output string `short:"o" help:"Output directory, removed and recreated (default: garden.directory)"`
	Jobs   int    `short:"j" help:"Members converted in parallel (default: garden.jobs)"`
	DryRun bool   `name:"dry-run" help:"Skip the converter; members are normalized and linked as written"`
}

func (c *GardenCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	index, outDir := gardenPaths(root, cfg, c.Index, c.Output)
	if c.Jobs > 0 {
		cfg.Garden.Jobs = c.Jobs
	}

	m := newMetrics(cfg.Metrics.Textfile != "")
	defer m.flush(root.Resolve(cfg.Metrics.Textfile), root.Logger())

	garden := newGarden(root, cfg, c.DryRun, m.recorder)
	summary, err := garden.Build(g.Context, index, outDir)
	if err != nil {
		return err
	}
	return printSummary(g, summary)
}

// gardenPaths applies the configured defaults to the index and output arguments.
func gardenPaths(root *CLI, cfg *config.Config, index, output string) (string, string) {
	if index == "" {
		index = root.Resolve(cfg.Garden.Index)
	}
	if output == "" {
		output = root.Resolve(cfg.Garden.Directory)
	}
	return index, output
}

func newGarden(root *CLI, cfg *config.Config, dryRun bool, rec metrics.Recorder) *assemble.Garden {
	var conv convert.Converter = root.newPandoc(cfg)
	if dryRun {
		conv = convert.Passthrough{}
	}
	opts := assemble.GardenOptions{
		Prefix:    cfg.Garden.Prefix,
		Extension: cfg.Sources.Extension,
		Jobs:      cfg.Garden.Jobs,
		Logger:    root.Logger(),
	}
	if cfg.Output.WorkDir != "" {
		opts.WorkBase = root.Resolve(cfg.Output.WorkDir)
	}
	return assemble.NewGarden(conv, opts).WithRecorder(rec)
}

func printSummary(g *Global, s *assemble.Summary) error {
	if s.Report.HasWarnings() || s.Report.HasErrors() {
		if err := report.NewFormatter("text").Format(g.Out, "Garden warnings", s.Report); err != nil {
			return err
		}
	}
	line := fmt.Sprintf("✓ Built %d of %d members in %s", s.Built(), len(s.Members), s.Duration.Round(time.Millisecond))
	if s.Built() < len(s.Members) {
		fmt.Fprintln(g.Out, warningStyle.Render(line))
		return nil
	}
	fmt.Fprintln(g.Out, successStyle.Render(line))
	return nil
}

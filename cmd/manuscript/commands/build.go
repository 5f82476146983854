package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/assemble"
	"git.home.luguber.info/inful/manuscript/internal/config"
	"git.home.luguber.info/inful/manuscript/internal/convert"
	"git.home.luguber.info/inful/manuscript/internal/report"
	"git.home.luguber.info/inful/manuscript/internal/workspace"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Document      string `arg:"" enum:"main,si" help:"Document to build (main or si)"`
	Format        string `arg:"" optional:"" enum:"pdf,docx" default:"pdf" help:"Output format (pdf or docx)"`
	PNG           bool   `name:"png" help:"Convert PDF figures to PNG before a docx build"`
	IncludeSIRefs bool   `name:"include-si-refs" help:"Add the supporting information citations to the main text bibliography"`
	NoFrontmatter bool   `name:"no-frontmatter" help:"Do not prepend the front matter file"`
	DryRun        bool   `name:"dry-run" help:"Write the assembled Markdown instead of converting it"`
	Output        string `short:"o" help:"Output file (default: <output.directory>/<source stem>.<format>)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	logger := root.Logger()

	profile := convert.Profile(b.Document)
	source := cfg.Sources.Main
	if profile == convert.ProfileSI {
		source = cfg.Sources.SI
	}
	if b.IncludeSIRefs && profile == convert.ProfileSI {
		logger.Warn("--include-si-refs only applies to the main document; ignoring")
		b.IncludeSIRefs = false
	}

	format := convert.Format(b.Format)
	var conv convert.Converter = root.newPandoc(cfg)
	if b.DryRun {
		conv = convert.Passthrough{}
	}
	output := b.outputPath(root, cfg, source, format)

	fmt.Fprintln(g.Out, banner("Build", b.bannerRows(source)))

	m := newMetrics(cfg.Metrics.Textfile != "")
	defer m.flush(root.Resolve(cfg.Metrics.Textfile), logger)

	builder := assemble.NewBuilder(conv).WithLogger(logger).WithRecorder(m.recorder)
	if cfg.Output.WorkDir != "" {
		base := root.Resolve(cfg.Output.WorkDir)
		builder = builder.WithWorkspace(func() *workspace.Manager {
			return workspace.NewPersistentManager(filepath.Dir(base), filepath.Base(base))
		})
	}

	doc := assemble.DocumentOptions{
		Source:           root.Resolve(source),
		CitationSource:   root.Resolve(cfg.Sources.SI),
		IncludeCitations: b.IncludeSIRefs,
		Extension:        cfg.Sources.Extension,
		Logger:           logger,
	}
	if !b.NoFrontmatter {
		doc.Frontmatter = root.Resolve(cfg.Sources.Frontmatter)
	}

	res, err := builder.BuildDocument(g.Context, assemble.BuildOptions{
		Document:         doc,
		Profile:          profile,
		Format:           format,
		OutputPath:       output,
		RasterizeFigures: b.PNG && !b.DryRun,
		FiguresDir:       root.Resolve(cfg.Output.Figures),
	})
	if err != nil {
		return err
	}

	if res.Report.HasWarnings() || res.Report.HasErrors() {
		if err := report.NewFormatter("text").Format(g.Out, "Build warnings", res.Report); err != nil {
			return err
		}
	}
	fmt.Fprintln(g.Out, successStyle.Render("✓ "+res.OutputPath+" created"))
	return nil
}

// outputPath picks -o, or <output.directory>/<stem>.<format>. Dry runs
// produce Markdown.
func (b *BuildCmd) outputPath(root *CLI, cfg *config.Config, source string, format convert.Format) string {
	if b.Output != "" {
		return b.Output
	}
	ext := "." + string(format)
	if b.DryRun {
		ext = cfg.Sources.Extension
	}
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(root.Resolve(cfg.Output.Directory), stem+ext)
}

func (b *BuildCmd) bannerRows(source string) []bannerRow {
	rows := []bannerRow{
		{"Document", b.Document + " (" + source + ")"},
		{"Format", b.Format},
		{"Include Frontmatter", yesNo(!b.NoFrontmatter)},
	}
	if b.Format == string(convert.FormatDOCX) {
		rows = append(rows, bannerRow{"PNG Conversion", yesNo(b.PNG)})
	}
	if b.Document == string(convert.ProfileMain) {
		rows = append(rows, bannerRow{"Include SI Refs", yesNo(b.IncludeSIRefs)})
	}
	if b.DryRun {
		rows = append(rows, bannerRow{"Dry Run", warningStyle.Render("yes")})
	}
	return rows
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

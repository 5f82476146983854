package convert

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/markers"
)

// SIHeader is the LaTeX header included for supporting-information builds.
const SIHeader = `\usepackage{lineno}
\setcounter{page}{1}
\renewcommand{\thefigure}{S\arabic{figure}}
\renewcommand{\thetable}{S\arabic{table}}
\renewcommand{\thepage}{S\arabic{page}}
`

const (
	metadataFile = "_manuscript_meta.yaml"
	siHeaderFile = "_si_header.tex"
)

// Pandoc runs the pandoc binary.
type Pandoc struct {
	// Binary defaults to "pandoc".
	Binary string
	// Defaults is passed as --defaults when set.
	Defaults string
	// LuaFilter is added for DOCX output when set.
	LuaFilter string
	Logger    *slog.Logger
}

// Metadata is the document metadata Pandoc writes for a request.
type Metadata struct {
	FigureOffset int              `yaml:"figure-offset"`
	TableOffset  int              `yaml:"table-offset"`
	GlobalLabels markers.LabelMap `yaml:"global-labels,omitempty"`
	FigPrefix    []string         `yaml:"figPrefix,omitempty"`
	TblPrefix    []string         `yaml:"tblPrefix,omitempty"`
}

// MetadataFor builds the metadata for req.
func MetadataFor(req Request) Metadata {
	m := Metadata{
		FigureOffset: req.Offsets.Figures,
		TableOffset:  req.Offsets.Tables,
		GlobalLabels: req.Labels,
	}
	if req.Profile == ProfileSI {
		m.FigPrefix = []string{"Fig.", "Figs."}
		m.TblPrefix = []string{"Table", "Tables"}
	}
	return m
}

// Args returns the pandoc arguments for req, writing the metadata file and,
// for SI builds, the header into req.WorkDir.
func (p *Pandoc) Args(req Request) ([]string, error) {
	workDir := req.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	meta, err := yaml.Marshal(MetadataFor(req))
	if err != nil {
		return nil, fmt.Errorf("encode pandoc metadata: %w", err)
	}
	metaPath := filepath.Join(workDir, metadataFile)
	if err := os.WriteFile(metaPath, meta, 0o600); err != nil {
		return nil, fmt.Errorf("write pandoc metadata: %w", err)
	}

	args := []string{"--from", "markdown"}
	if p.Defaults != "" {
		args = append(args, "--defaults="+p.Defaults)
	}
	args = append(args, "--metadata-file="+metaPath)
	if req.ResourceDir != "" {
		args = append(args, "--resource-path="+req.ResourceDir)
	}

	if req.Profile == ProfileSI {
		headerPath := filepath.Join(workDir, siHeaderFile)
		if err := os.WriteFile(headerPath, []byte(SIHeader), 0o600); err != nil {
			return nil, fmt.Errorf("write SI header: %w", err)
		}
		args = append(args, "--include-in-header="+headerPath)
	}
	if req.Format == FormatDOCX && p.LuaFilter != "" {
		args = append(args, "--lua-filter="+p.LuaFilter)
	}

	if req.OutputPath != "" {
		args = append(args, "-o", req.OutputPath)
	} else {
		args = append(args, "--to", string(req.Format))
	}
	return args, nil
}

// Convert feeds req.Input to pandoc on stdin. With an OutputPath it returns
// nil output; otherwise it returns pandoc's stdout.
func (p *Pandoc) Convert(ctx context.Context, req Request) ([]byte, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bin := p.Binary
	if bin == "" {
		bin = "pandoc"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBinaryNotFound, err)
	}

	args, err := p.Args(req)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(req.Input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	logger.Debug("Invoking pandoc", logfields.Format(string(req.Format)), "args", strings.Join(args, " "))

	err = cmd.Run()
	if errStr := stderr.String(); errStr != "" {
		logger.Warn("pandoc stderr", "error_output", errStr)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if out := strings.TrimSpace(stderr.String()); out != "" {
			return nil, fmt.Errorf("%w: %w: %s", ErrConversionFailed, err, out)
		}
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}

	if req.OutputPath != "" {
		return nil, nil
	}
	return stdout.Bytes(), nil
}

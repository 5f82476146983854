package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/manuscript/internal/convert"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/report"
	"git.home.luguber.info/inful/manuscript/internal/workspace"
)

// Builder runs single-document builds.
type Builder struct {
	converter convert.Converter
	recorder  metrics.Recorder
	logger    *slog.Logger
	newWork   func() *workspace.Manager
}

// NewBuilder returns a Builder converting through c.
func NewBuilder(c convert.Converter) *Builder {
	return &Builder{
		converter: c,
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		newWork:   func() *workspace.Manager { return workspace.NewManager("") },
	}
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithWorkspace sets how the scratch directory is created.
func (b *Builder) WithWorkspace(newWork func() *workspace.Manager) *Builder {
	if newWork != nil {
		b.newWork = newWork
	}
	return b
}

// BuildOptions describes one document build.
type BuildOptions struct {
	Document DocumentOptions
	Profile  convert.Profile
	Format   convert.Format
	// OutputPath receives the converted document.
	OutputPath string
	// RasterizeFigures converts PDF figures in FiguresDir to PNG first.
	RasterizeFigures bool
	FiguresDir       string
}

// BuildResult summarizes a finished document build.
type BuildResult struct {
	OutputPath string
	Report     *report.Result
	Duration   time.Duration
}

// BuildDocument assembles and converts one document. Any converter failure
// aborts the build.
func (b *Builder) BuildDocument(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	start := time.Now()
	if opts.Document.Logger == nil {
		opts.Document.Logger = b.logger
	}

	merged, rep, err := AssembleDocument(opts.Document)
	b.recorder.ObserveStageDuration(metrics.StageAssemble, time.Since(start))
	if err != nil {
		b.finish(rep, metrics.OutcomeFailed, start)
		return nil, err
	}

	ws := b.newWork().WithLogger(b.logger)
	if err := ws.Create(); err != nil {
		b.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create workspace").Fatal().Build()
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			b.logger.Warn("Workspace cleanup failed", logfields.Error(cerr))
		}
	}()
	if _, err := ws.WriteFile("merged.md", []byte(merged)); err != nil {
		b.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write merged input").Fatal().Build()
	}

	if opts.RasterizeFigures && opts.Format == convert.FormatDOCX {
		if err := convert.RasterizeFigures(ctx, opts.FiguresDir); err != nil {
			rep.Warn(report.KindCollaboratorFailure, opts.FiguresDir, "",
				fmt.Sprintf("figure conversion to PNG failed: %v", err))
		}
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			b.finish(rep, metrics.OutcomeFailed, start)
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").Fatal().Build()
		}
	}

	convStart := time.Now()
	b.logger.Info("Converting document",
		logfields.File(opts.Document.Source), logfields.Format(string(opts.Format)), logfields.Path(opts.OutputPath))
	out, err := b.converter.Convert(ctx, convert.Request{
		Input:       []byte(merged),
		Format:      opts.Format,
		Profile:     opts.Profile,
		OutputPath:  opts.OutputPath,
		WorkDir:     ws.Path(),
		ResourceDir: filepath.Dir(opts.Document.Source),
	})
	b.recorder.ObserveStageDuration(metrics.StageConvert, time.Since(convStart))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			b.finish(rep, metrics.OutcomeCanceled, start)
			return nil, err
		}
		rep.Add(report.Issue{Kind: report.KindCollaboratorFailure, Severity: report.SeverityError,
			File: opts.Document.Source, Message: err.Error()})
		b.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryConversion, "conversion failed").
			Fatal().WithContext("source", opts.Document.Source).Build()
	}

	// Converters that return the document instead of writing it.
	if len(out) > 0 && opts.OutputPath != "" {
		if err := os.WriteFile(opts.OutputPath, out, 0o644); err != nil {
			b.finish(rep, metrics.OutcomeFailed, start)
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").Fatal().Build()
		}
	}

	outcome := metrics.OutcomeSuccess
	if rep.HasWarnings() {
		outcome = metrics.OutcomeWarning
	}
	b.finish(rep, outcome, start)
	return &BuildResult{OutputPath: opts.OutputPath, Report: rep, Duration: time.Since(start)}, nil
}

func (b *Builder) finish(rep *report.Result, outcome metrics.Outcome, start time.Time) {
	recordWarnings(b.recorder, rep)
	b.recorder.ObserveBuildDuration(time.Since(start))
	b.recorder.IncBuildOutcome(outcome)
}

func recordWarnings(r metrics.Recorder, rep *report.Result) {
	if rep == nil {
		return
	}
	counts := make(map[report.Kind]int)
	for _, issue := range rep.Issues() {
		counts[issue.Kind]++
	}
	for kind, n := range counts {
		r.AddWarnings(string(kind), n)
	}
}

package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/manuscript/internal/convert"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/markers"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/normalize"
	"git.home.luguber.info/inful/manuscript/internal/report"
	"git.home.luguber.info/inful/manuscript/internal/transclude"
	"git.home.luguber.info/inful/manuscript/internal/workspace"
)

// GardenOptions configures collection builds.
type GardenOptions struct {
	// Prefix names every output file. Defaults to "garden".
	Prefix string
	// Extension is appended to targets without one and used for outputs.
	Extension string
	// Jobs bounds concurrent member conversions. Values below 2 convert
	// members one after another.
	Jobs    int
	Scanner markers.Scanner
	// WorkBase is where the scratch workspace is created, os.TempDir when empty.
	WorkBase string
	// Revision is stamped on outputs. When empty it is read from the git
	// repository holding the index, if any.
	Revision string
	Logger   *slog.Logger
}

// Garden builds a linked collection from an index file.
type Garden struct {
	converter convert.Converter
	recorder  metrics.Recorder
	opts      GardenOptions
	logger    *slog.Logger
}

// NewGarden returns a Garden converting members through c.
func NewGarden(c convert.Converter, opts GardenOptions) *Garden {
	if opts.Prefix == "" {
		opts.Prefix = "garden"
	}
	if opts.Extension == "" {
		opts.Extension = transclude.DefaultExtension
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if opts.Scanner == nil {
		opts.Scanner = markers.LineScanner{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Garden{converter: c, recorder: metrics.NoopRecorder{}, opts: opts, logger: logger}
}

// WithRecorder sets the metrics recorder.
func (g *Garden) WithRecorder(r metrics.Recorder) *Garden {
	if r != nil {
		g.recorder = r
	}
	return g
}

// MemberResult is the outcome for one member.
type MemberResult struct {
	Member
	Offsets markers.Offsets
	// Output is the written file, empty when the member was skipped.
	Output string
	Images []string
}

// Summary describes a finished collection build.
type Summary struct {
	Index    string
	Members  []MemberResult
	Labels   markers.LabelMap
	Totals   markers.Counters
	Report   *report.Result
	Duration time.Duration
}

// Built counts the members that produced an output.
func (s *Summary) Built() int {
	n := 0
	for _, m := range s.Members {
		if m.Output != "" {
			n++
		}
	}
	return n
}

// Build turns indexPath into a collection under outDir, which is removed and
// recreated. Members that cannot be read or converted are skipped with a
// warning; the returned error is reserved for failures that stop the whole
// build.
func (g *Garden) Build(ctx context.Context, indexPath, outDir string) (*Summary, error) {
	start := time.Now()
	rep := report.New(g.logger)

	// #nosec G304 -- the index is named by the user.
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		g.finish(rep, metrics.OutcomeFailed, start)
		return nil, readError(err, indexPath)
	}
	index := string(raw)
	baseDir := filepath.Dir(indexPath)
	members := Members(index, baseDir, g.opts.Extension)
	g.logger.Info("Building collection", logfields.File(indexPath), slog.Int("members", len(members)))

	stageStart := time.Now()
	scan := markers.PreScan(memberPaths(members), markers.Options{Scanner: g.opts.Scanner, Report: rep, Logger: g.logger})
	g.recorder.ObserveStageDuration(metrics.StagePreScan, time.Since(stageStart))

	if err := resetDir(outDir, baseDir); err != nil {
		g.finish(rep, metrics.OutcomeFailed, start)
		return nil, err
	}

	ws := workspace.NewManager(g.opts.WorkBase).WithLogger(g.logger)
	if err := ws.Create(); err != nil {
		g.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create workspace").Fatal().Build()
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			g.logger.Warn("Workspace cleanup failed", logfields.Error(cerr))
		}
	}()

	revision := g.opts.Revision
	if revision == "" {
		revision = Revision(baseDir)
	}

	// Offsets and labels are final here; members only read them.
	results := make([]MemberResult, len(members))
	stageStart = time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Jobs)
	for i := range members {
		results[i] = MemberResult{Member: members[i], Offsets: scan.Offsets[i]}
		eg.Go(func() error {
			return g.buildMember(egCtx, &results[i], members, scan.Labels, revision, ws.Path(), outDir, rep)
		})
	}
	if err := eg.Wait(); err != nil {
		outcome := metrics.OutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeCanceled
		}
		g.finish(rep, outcome, start)
		return nil, err
	}
	g.recorder.ObserveStageDuration(metrics.StageConvert, time.Since(stageStart))

	stageStart = time.Now()
	mirrorImages(results, outDir, rep, g.logger)
	g.recorder.ObserveStageDuration(metrics.StageAssets, time.Since(stageStart))

	stageStart = time.Now()
	rewritten, err := RewriteIndex(index, g.opts.Prefix, members)
	if err != nil {
		g.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "rewrite index").Fatal().Build()
	}
	indexOut := filepath.Join(outDir, g.opts.Prefix+g.opts.Extension)
	if err := os.WriteFile(indexOut, []byte(rewritten), 0o644); err != nil {
		g.finish(rep, metrics.OutcomeFailed, start)
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write index").Fatal().
			WithContext("path", indexOut).Build()
	}
	g.recorder.ObserveStageDuration(metrics.StageIndex, time.Since(stageStart))

	summary := &Summary{
		Index:    indexOut,
		Members:  results,
		Labels:   scan.Labels,
		Totals:   scan.Totals,
		Report:   rep,
		Duration: time.Since(start),
	}
	outcome := metrics.OutcomeSuccess
	if rep.HasWarnings() || rep.HasErrors() {
		outcome = metrics.OutcomeWarning
	}
	g.finish(rep, outcome, start)
	g.logger.Info("Collection built",
		slog.Int("built", summary.Built()),
		slog.Int("members", len(results)),
		slog.Int("warnings", rep.WarningCount()),
		logfields.DurationMS(float64(summary.Duration.Milliseconds())))
	return summary, nil
}

func (g *Garden) buildMember(ctx context.Context, res *MemberResult, members []Member, labels markers.LabelMap,
	revision, workRoot, outDir string, rep *report.Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := res.Member
	logger := g.logger.With(logfields.Member(m.Stem), slog.Int("position", m.Position))

	src, err := ReadSource(m.Path)
	switch {
	case src == nil && isMissing(err):
		rep.Warn(report.KindMissingInclusionTarget, m.Path, m.Directive.Target, "member file does not exist; skipped")
		g.recorder.IncMember(false)
		return nil
	case src == nil:
		if !reported(rep, report.KindUnreadableFile, m.Path) {
			rep.Warn(report.KindUnreadableFile, m.Path, "", fmt.Sprintf("cannot read member; skipped: %v", err))
		}
		g.recorder.IncMember(false)
		return nil
	case err != nil:
		rep.Warn(report.KindMalformedMetadata, m.Path, "", fmt.Sprintf("metadata block ignored: %v", err))
	}

	skip := func(kind report.Kind, msg string, err error) error {
		rep.Warn(kind, m.Path, "", fmt.Sprintf("%s; member skipped: %v", msg, err))
		g.recorder.IncMember(false)
		return nil
	}

	workDir := filepath.Join(workRoot, fmt.Sprintf("%03d_%s", m.Position, m.Stem))
	if err := os.MkdirAll(workDir, 0o750); err != nil {
		return skip(report.KindWriteFailure, "cannot create member workspace", err)
	}

	input := strings.TrimRight(src.Body, "\n") + navBlock(g.opts.Prefix, members, m.Position-1)
	logger.Debug("Converting member", slog.Int("figure_offset", res.Offsets.Figures), slog.Int("table_offset", res.Offsets.Tables))
	out, err := g.converter.Convert(ctx, convert.Request{
		Input:       []byte(input),
		Format:      convert.FormatMarkdown,
		Offsets:     res.Offsets,
		Labels:      labels,
		Profile:     convert.ProfileMain,
		WorkDir:     workDir,
		ResourceDir: filepath.Dir(m.Path),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return skip(report.KindCollaboratorFailure, "conversion failed", err)
	}

	body := normalize.Escapes(string(out))
	fields, err := memberFields(src.Fields, g.opts.Prefix, m, revision, body)
	if err != nil {
		return skip(report.KindWriteFailure, "cannot build member metadata", err)
	}
	text, err := normalize.WithMetadata(body, fields, leadFields...)
	if err != nil {
		return skip(report.KindWriteFailure, "cannot render member metadata", err)
	}

	outPath := filepath.Join(outDir, OutputName(g.opts.Prefix, m.Stem)+g.opts.Extension)
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return skip(report.KindWriteFailure, "cannot write member output", err)
	}

	res.Output = outPath
	res.Images = localImages(body)
	g.recorder.IncMember(true)
	logger.Info("Member written", logfields.Path(outPath))
	return nil
}

// reported tells whether rep already holds an issue of kind for file.
func reported(rep *report.Result, kind report.Kind, file string) bool {
	for _, issue := range rep.ByKind(kind) {
		if issue.File == file {
			return true
		}
	}
	return false
}

// navBlock links a member to its neighbours and to the index.
func navBlock(prefix string, members []Member, i int) string {
	links := make([]string, 0, 3)
	if i > 0 {
		prev := members[i-1]
		links = append(links, fmt.Sprintf("Previous: [[%s|%s]]", OutputName(prefix, prev.Stem), prev.Display()))
	}
	links = append(links, fmt.Sprintf("Index: [[%s]]", prefix))
	if i+1 < len(members) {
		next := members[i+1]
		links = append(links, fmt.Sprintf("Next: [[%s|%s]]", OutputName(prefix, next.Stem), next.Display()))
	}
	return "\n\n" + strings.Join(links, " | ") + "\n"
}

// resetDir removes and recreates outDir. It refuses to remove the source
// directory or one of its parents.
func resetDir(outDir, sourceDir string) error {
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve output directory").Fatal().Build()
	}
	absSrc, err := filepath.Abs(sourceDir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source directory").Fatal().Build()
	}
	if rel, err := filepath.Rel(absOut, absSrc); err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return ferrors.ValidationError("output directory contains the manuscript sources").
			WithContext("output", outDir).Build()
	}

	if err := os.RemoveAll(absOut); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear output directory").Fatal().Build()
	}
	if err := os.MkdirAll(absOut, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").Fatal().Build()
	}
	return nil
}

func (g *Garden) finish(rep *report.Result, outcome metrics.Outcome, start time.Time) {
	recordWarnings(g.recorder, rep)
	g.recorder.ObserveBuildDuration(time.Since(start))
	g.recorder.IncBuildOutcome(outcome)
}

package assemble

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/inful/mdfp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/manuscript/internal/convert"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"git.home.luguber.info/inful/manuscript/internal/markers"
	"git.home.luguber.info/inful/manuscript/internal/metrics"
	"git.home.luguber.info/inful/manuscript/internal/report"
	"git.home.luguber.info/inful/manuscript/internal/transclude"
	"git.home.luguber.info/inful/manuscript/internal/workspace"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fakeConverter escapes brackets and underscores the way pandoc's Markdown
// writer does and records every request.
type fakeConverter struct {
	mu       sync.Mutex
	requests []convert.Request
	failOn   string
}

var pandocEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "_", `\_`)

func (f *fakeConverter) Convert(_ context.Context, req convert.Request) ([]byte, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.failOn != "" && strings.Contains(string(req.Input), f.failOn) {
		return nil, errors.New("pandoc exited with status 64")
	}
	return []byte(pandocEscaper.Replace(string(req.Input))), nil
}

func (f *fakeConverter) requestContaining(t *testing.T, marker string) convert.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if strings.Contains(string(r.Input), marker) {
			return r
		}
	}
	t.Fatalf("no request containing %q", marker)
	return convert.Request{}
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	built    int
	failed   int
	outcomes []metrics.Outcome
}

func (r *countingRecorder) IncMember(built bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if built {
		r.built++
	} else {
		r.failed++
	}
}

func (r *countingRecorder) IncBuildOutcome(o metrics.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

// --- single document ---

func documentFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "00_frontmatter.md", "---\ntitle: Paper\n---\n")
	writeFile(t, dir, "01_maintext.md", "---\ndraft: true\n---\n\n# Intro\n![[methods]]\nCite @smith2021.\n")
	writeFile(t, dir, "methods.md", "---\nsection: 2\n---\nMethods body\n")
	writeFile(t, dir, "02_supp_info.md", "See @doe2020, @Fig:one, @smith2021 and @email.\n")
	return dir
}

func TestAssembleDocument_FrontmatterCitationsAndInclusion(t *testing.T) {
	dir := documentFixture(t)

	out, rep, err := AssembleDocument(DocumentOptions{
		Source:           filepath.Join(dir, "01_maintext.md"),
		Frontmatter:      filepath.Join(dir, "00_frontmatter.md"),
		CitationSource:   filepath.Join(dir, "02_supp_info.md"),
		IncludeCitations: true,
		Logger:           quietLogger(),
	})
	require.NoError(t, err)
	require.Empty(t, rep.Issues())
	require.Equal(t,
		"---\nnocite: |\n  @doe2020; @smith2021\n---\n\n"+
			"---\ntitle: Paper\n---\n\n"+
			"# Intro\nMethods body\nCite @smith2021.\n",
		out)
}

func TestAssembleDocument_SourceOnly(t *testing.T) {
	dir := documentFixture(t)

	out, _, err := AssembleDocument(DocumentOptions{Source: filepath.Join(dir, "01_maintext.md"), Logger: quietLogger()})
	require.NoError(t, err)
	require.Equal(t, "---\ndraft: true\n---\n\n# Intro\nMethods body\nCite @smith2021.\n", out)
}

func TestAssembleDocument_NoCitationsMeansNoHint(t *testing.T) {
	dir := documentFixture(t)
	writeFile(t, dir, "02_supp_info.md", "Only @Tbl:two here.\n")

	out, _, err := AssembleDocument(DocumentOptions{
		Source:           filepath.Join(dir, "01_maintext.md"),
		CitationSource:   filepath.Join(dir, "02_supp_info.md"),
		IncludeCitations: true,
		Logger:           quietLogger(),
	})
	require.NoError(t, err)
	require.NotContains(t, out, "nocite")
}

func TestAssembleDocument_MissingCitationSourceIsIgnored(t *testing.T) {
	dir := documentFixture(t)

	out, rep, err := AssembleDocument(DocumentOptions{
		Source:           filepath.Join(dir, "01_maintext.md"),
		CitationSource:   filepath.Join(dir, "absent.md"),
		IncludeCitations: true,
		Logger:           quietLogger(),
	})
	require.NoError(t, err)
	require.Empty(t, rep.Issues())
	require.NotContains(t, out, "nocite")
}

func TestAssembleDocument_MissingInclusionIsAWarning(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.md", "A\n![[ghost]]\nB\n")

	out, rep, err := AssembleDocument(DocumentOptions{Source: src, Logger: quietLogger()})
	require.NoError(t, err)
	require.Equal(t, "A\n![[ghost]]\nB\n", out)
	require.Len(t, rep.ByKind(report.KindMissingInclusionTarget), 1)
}

func TestAssembleDocument_MissingSource(t *testing.T) {
	_, _, err := AssembleDocument(DocumentOptions{Source: filepath.Join(t.TempDir(), "nope.md"), Logger: quietLogger()})
	require.Error(t, err)
	require.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestAssembleDocument_CycleIsFatal(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "main.md", "![[a]]\n")
	writeFile(t, dir, "a.md", "![[main]]\n")

	_, rep, err := AssembleDocument(DocumentOptions{Source: src, Logger: quietLogger()})
	require.ErrorIs(t, err, transclude.ErrCyclicInclusion)
	require.Len(t, rep.ByKind(report.KindCyclicInclusion), 1)
}

func TestBuildDocument_WritesConverterOutput(t *testing.T) {
	dir := documentFixture(t)
	rec := &countingRecorder{}
	outPath := filepath.Join(dir, "export", "01_maintext.md")

	b := NewBuilder(convert.Passthrough{}).
		WithLogger(quietLogger()).
		WithRecorder(rec).
		WithWorkspace(func() *workspace.Manager { return workspace.NewManager(t.TempDir()) })
	res, err := b.BuildDocument(context.Background(), BuildOptions{
		Document:   DocumentOptions{Source: filepath.Join(dir, "01_maintext.md")},
		Format:     convert.FormatMarkdown,
		Profile:    convert.ProfileMain,
		OutputPath: outPath,
	})
	require.NoError(t, err)
	require.Equal(t, outPath, res.OutputPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "Methods body")
	require.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
}

func TestBuildDocument_PassesProfileAndWorkDir(t *testing.T) {
	dir := documentFixture(t)
	conv := &fakeConverter{}

	_, err := NewBuilder(conv).WithLogger(quietLogger()).BuildDocument(context.Background(), BuildOptions{
		Document:   DocumentOptions{Source: filepath.Join(dir, "02_supp_info.md")},
		Format:     convert.FormatPDF,
		Profile:    convert.ProfileSI,
		OutputPath: filepath.Join(dir, "export", "02_supp_info.pdf"),
	})
	require.NoError(t, err)
	require.Len(t, conv.requests, 1)
	req := conv.requests[0]
	require.Equal(t, convert.ProfileSI, req.Profile)
	require.Equal(t, convert.FormatPDF, req.Format)
	require.Equal(t, dir, req.ResourceDir)
	require.NotEmpty(t, req.WorkDir)
	require.NoDirExists(t, req.WorkDir, "ephemeral workspace is removed after the build")
}

func TestBuildDocument_ConverterFailureAborts(t *testing.T) {
	dir := documentFixture(t)
	rec := &countingRecorder{}

	_, err := NewBuilder(&fakeConverter{failOn: "Methods"}).
		WithLogger(quietLogger()).
		WithRecorder(rec).
		BuildDocument(context.Background(), BuildOptions{
			Document:   DocumentOptions{Source: filepath.Join(dir, "01_maintext.md")},
			Format:     convert.FormatDOCX,
			OutputPath: filepath.Join(dir, "export", "01_maintext.docx"),
		})
	require.Error(t, err)
	require.Equal(t, ferrors.CategoryConversion, ferrors.GetCategory(err))
	require.Equal(t, []metrics.Outcome{metrics.OutcomeFailed}, rec.outcomes)
}

// --- collection ---

type gardenFixture struct {
	dir   string
	index string
	out   string
}

func newGardenFixture(t *testing.T) gardenFixture {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "intro.md", "---\nauthor: Ada\n---\n# Introduction\n\nMember intro.\n\n"+
		"![Flow](figures/flow.png){#fig:flow}\n\n![Unlabeled](figures/b.png)\n")
	writeFile(t, dir, "methods.md", "Member methods uses snake_case.\n\n| a |\n|---|\n| 1 |\n\nTable: Params {#tbl:params}\n")
	writeFile(t, dir, "results.md", "Member results.\n\n![Chart](figures/chart.png){#fig:res}\n\nSee @fig:flow.\n")
	writeFile(t, dir, "figures/flow.png", "png-flow")
	writeFile(t, dir, "figures/chart.png", "png-chart")
	index := writeFile(t, dir, "paper.md", "# Paper\n\n![[intro]]\n![[methods|Methods]]\n![[results]]\n![[intro]]\n")
	return gardenFixture{dir: dir, index: index, out: filepath.Join(dir, "garden")}
}

func newTestGarden(t *testing.T, conv convert.Converter, jobs int) *Garden {
	t.Helper()
	return NewGarden(conv, GardenOptions{
		Prefix:   "g",
		Jobs:     jobs,
		Revision: "abc123",
		WorkBase: t.TempDir(),
		Logger:   quietLogger(),
	})
}

func readOutput(t *testing.T, path string) (map[string]any, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	block, body, had, _, err := frontmatter.Split(data)
	require.NoError(t, err)
	require.True(t, had)
	fields, err := frontmatter.ParseYAML(block)
	require.NoError(t, err)
	return fields, string(body)
}

func TestGardenBuild_OffsetsLabelsAndOutputs(t *testing.T) {
	fx := newGardenFixture(t)
	conv := &fakeConverter{}

	summary, err := newTestGarden(t, conv, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Built())
	require.Equal(t, markers.Counters{Figures: 3, Tables: 1}, summary.Totals)

	require.Equal(t, markers.Offsets{}, conv.requestContaining(t, "Member intro").Offsets)
	require.Equal(t, markers.Offsets{Figures: 2}, conv.requestContaining(t, "Member methods").Offsets)
	require.Equal(t, markers.Offsets{Figures: 2, Tables: 1}, conv.requestContaining(t, "Member results").Offsets)

	req := conv.requestContaining(t, "Member results")
	require.Equal(t, convert.FormatMarkdown, req.Format)
	require.Equal(t, markers.Label{Kind: markers.KindFigure, Number: 1, File: filepath.Join(fx.dir, "intro.md")}, req.Labels["fig:flow"])
	require.Equal(t, 3, req.Labels["fig:res"].Number)
	require.Equal(t, 1, req.Labels["tbl:params"].Number)

	fields, body := readOutput(t, filepath.Join(fx.out, "g_intro.md"))
	require.Equal(t, "intro", fields[FieldTitle])
	require.Equal(t, 1, fields[FieldPosition])
	require.Equal(t, MemberUID("g", "intro"), fields[FieldUID])
	require.Equal(t, "abc123", fields[FieldRevision])
	require.Equal(t, "Ada", fields["author"])
	require.NotEmpty(t, fields[mdfp.FingerprintField])
	require.Contains(t, body, "Index: [[g]] | Next: [[g_methods|Methods]]")
	require.NotContains(t, body, `\[`)

	_, body = readOutput(t, filepath.Join(fx.out, "g_methods.md"))
	require.Contains(t, body, "snake_case")
	require.Contains(t, body, "Previous: [[g_intro|intro]] | Index: [[g]] | Next: [[g_results|results]]")

	_, body = readOutput(t, filepath.Join(fx.out, "g_results.md"))
	require.Contains(t, body, "Previous: [[g_methods|Methods]] | Index: [[g]]")
	require.NotContains(t, body, "Next:")

	index, err := os.ReadFile(filepath.Join(fx.out, "g.md"))
	require.NoError(t, err)
	require.Equal(t, "# Paper\n\n- [[g_intro|intro]]\n- [[g_methods|Methods]]\n- [[g_results|results]]\n- [[g_intro|intro]]\n", string(index))
	require.Equal(t, filepath.Join(fx.out, "g.md"), summary.Index)
}

func TestGardenBuild_MirrorsImages(t *testing.T) {
	fx := newGardenFixture(t)

	summary, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(fx.out, "figures", "flow.png"))
	require.NoError(t, err)
	require.Equal(t, "png-flow", string(data))
	require.FileExists(t, filepath.Join(fx.out, "figures", "chart.png"))

	missing := summary.Report.ByKind(report.KindAssetCopy)
	require.Len(t, missing, 1)
	require.Equal(t, "figures/b.png", missing[0].Target)
}

func TestGardenBuild_ConverterFailureSkipsMember(t *testing.T) {
	fx := newGardenFixture(t)
	rec := &countingRecorder{}

	summary, err := newTestGarden(t, &fakeConverter{failOn: "Member methods"}, 1).
		WithRecorder(rec).
		Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Built())
	require.Len(t, summary.Report.ByKind(report.KindCollaboratorFailure), 1)

	require.NoFileExists(t, filepath.Join(fx.out, "g_methods.md"))
	require.FileExists(t, filepath.Join(fx.out, "g_results.md"))
	require.FileExists(t, filepath.Join(fx.out, "g.md"))
	require.Equal(t, 2, rec.built)
	require.Equal(t, 1, rec.failed)
	require.Equal(t, []metrics.Outcome{metrics.OutcomeWarning}, rec.outcomes)
}

// blockingConverter occupies the output path of the member whose input
// contains marker, so writing that member fails.
type blockingConverter struct {
	fakeConverter
	marker string
	path   string
}

func (b *blockingConverter) Convert(ctx context.Context, req convert.Request) ([]byte, error) {
	if strings.Contains(string(req.Input), b.marker) {
		if err := os.MkdirAll(b.path, 0o750); err != nil {
			return nil, err
		}
	}
	return b.fakeConverter.Convert(ctx, req)
}

func TestGardenBuild_WriteFailureSkipsMember(t *testing.T) {
	fx := newGardenFixture(t)
	rec := &countingRecorder{}
	conv := &blockingConverter{marker: "Member methods", path: filepath.Join(fx.out, "g_methods.md")}

	summary, err := newTestGarden(t, conv, 2).
		WithRecorder(rec).
		Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Built())
	require.Len(t, summary.Report.ByKind(report.KindWriteFailure), 1)
	require.Equal(t, 1, rec.failed)

	require.DirExists(t, filepath.Join(fx.out, "g_methods.md"))
	require.FileExists(t, filepath.Join(fx.out, "g_intro.md"))
	require.FileExists(t, filepath.Join(fx.out, "g_results.md"))
	require.FileExists(t, filepath.Join(fx.out, "g.md"))
}

func TestGardenBuild_SameStemInDifferentDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/intro.md", "First introduction.\n")
	writeFile(t, dir, "b/intro.md", "Second introduction.\n")
	index := writeFile(t, dir, "paper.md", "![[a/intro]]\n![[b/intro]]\n![[a/intro|Again]]\n")
	out := filepath.Join(dir, "garden")
	conv := &fakeConverter{}

	summary, err := newTestGarden(t, conv, 2).Build(context.Background(), index, out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Built())

	first, firstBody := readOutput(t, filepath.Join(out, "g_a-intro.md"))
	second, secondBody := readOutput(t, filepath.Join(out, "g_b-intro.md"))
	require.Contains(t, firstBody, "First introduction.")
	require.Contains(t, secondBody, "Second introduction.")
	require.Equal(t, "intro", first["title"])
	require.Equal(t, "intro", second["title"])
	require.NotEqual(t, first["uid"], second["uid"])

	rewritten, err := os.ReadFile(summary.Index)
	require.NoError(t, err)
	require.Equal(t, "- [[g_a-intro|intro]]\n- [[g_b-intro|intro]]\n- [[g_a-intro|Again]]\n", string(rewritten))

	require.Equal(t, filepath.Join(dir, "b"), conv.requestContaining(t, "Second introduction").ResourceDir)
}

func TestGardenBuild_MissingMemberIsSkipped(t *testing.T) {
	fx := newGardenFixture(t)
	writeFile(t, fx.dir, "paper.md", "![[intro]]\n![[ghost]]\n![[results]]\n")
	conv := &fakeConverter{}

	summary, err := newTestGarden(t, conv, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Built())
	require.Len(t, summary.Report.ByKind(report.KindMissingInclusionTarget), 1)
	require.Empty(t, summary.Report.ByKind(report.KindUnreadableFile))
	require.Equal(t, markers.Offsets{Figures: 2}, conv.requestContaining(t, "Member results").Offsets)

	index, err := os.ReadFile(summary.Index)
	require.NoError(t, err)
	require.Contains(t, string(index), "- [[g_ghost|ghost]]")
}

func TestGardenBuild_UnreadableMemberReportedOnce(t *testing.T) {
	fx := newGardenFixture(t)
	require.NoError(t, os.Remove(filepath.Join(fx.dir, "methods.md")))
	require.NoError(t, os.Mkdir(filepath.Join(fx.dir, "methods.md"), 0o750))

	summary, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Built())
	require.Len(t, summary.Report.ByKind(report.KindUnreadableFile), 1)
	require.Empty(t, summary.Report.ByKind(report.KindMissingInclusionTarget))
}

func TestGardenBuild_ParallelMatchesSequential(t *testing.T) {
	fx := newGardenFixture(t)
	seqOut := filepath.Join(fx.dir, "seq")
	parOut := filepath.Join(fx.dir, "par")

	_, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, seqOut)
	require.NoError(t, err)
	summary, err := newTestGarden(t, &fakeConverter{}, 4).Build(context.Background(), fx.index, parOut)
	require.NoError(t, err)

	for i, m := range summary.Members {
		require.Equal(t, i+1, m.Position, "summary keeps member order")
		seq, err := os.ReadFile(filepath.Join(seqOut, "g_"+m.Stem+".md"))
		require.NoError(t, err)
		par, err := os.ReadFile(filepath.Join(parOut, "g_"+m.Stem+".md"))
		require.NoError(t, err)
		require.Equal(t, string(seq), string(par))
	}
}

func TestGardenBuild_RecreatesOutputDirectory(t *testing.T) {
	fx := newGardenFixture(t)
	stale := writeFile(t, fx.out, "g_removed.md", "stale")

	_, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.NoFileExists(t, stale)
}

func TestGardenBuild_RefusesToClearSources(t *testing.T) {
	fx := newGardenFixture(t)

	_, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.dir)
	require.Error(t, err)
	require.Equal(t, ferrors.CategoryValidation, ferrors.GetCategory(err))
	require.FileExists(t, fx.index)
}

func TestGardenBuild_IsDeterministic(t *testing.T) {
	fx := newGardenFixture(t)
	g := newTestGarden(t, &fakeConverter{}, 1)

	_, err := g.Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(fx.out, "g_results.md"))
	require.NoError(t, err)

	_, err = g.Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(fx.out, "g_results.md"))
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestGardenBuild_Canceled(t *testing.T) {
	fx := newGardenFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGarden(t, &fakeConverter{}, 2).Build(ctx, fx.index, fx.out)
	require.ErrorIs(t, err, context.Canceled)
}

func TestGardenBuild_MissingIndex(t *testing.T) {
	_, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), filepath.Join(t.TempDir(), "none.md"), t.TempDir())
	require.Equal(t, ferrors.CategoryNotFound, ferrors.GetCategory(err))
}

func TestGardenInspect(t *testing.T) {
	fx := newGardenFixture(t)
	writeFile(t, fx.dir, "paper.md", "![[intro]]\n![[ghost]]\n![[methods]]\n")

	insp, err := newTestGarden(t, &fakeConverter{}, 1).Inspect(fx.index)
	require.NoError(t, err)
	require.Len(t, insp.Members, 3)
	require.Equal(t, "Introduction", insp.Members[0].Title)
	require.True(t, insp.Members[0].Exists)
	require.False(t, insp.Members[1].Exists)
	require.Equal(t, markers.Offsets{Figures: 2}, insp.Members[2].Offsets)
	require.Len(t, insp.Report.ByKind(report.KindMissingInclusionTarget), 1)
	require.NoDirExists(t, fx.out)
}

// --- helpers ---

func TestMembers_FirstAppearanceOrder(t *testing.T) {
	members := Members("![[b]]\n![[a|Alpha]]\n![[b.md]]\n![[c.txt]]\n", "/m", ".md")
	require.Len(t, members, 3)
	require.Equal(t, []string{"b", "a", "c"}, []string{members[0].Stem, members[1].Stem, members[2].Stem})
	require.Equal(t, filepath.Join("/m", "c.txt"), members[2].Path)
	require.Equal(t, "Alpha", members[1].Display())
	require.Equal(t, 2, members[1].Position)
}

func TestRewriteIndex(t *testing.T) {
	index := "Intro text\n![[a]]\n![[dir/b|Bee]]\nTail\n"
	out, err := RewriteIndex(index, "notes", Members(index, "/m", ".md"))
	require.NoError(t, err)
	require.Equal(t, "Intro text\n- [[notes_a|a]]\n- [[notes_b|Bee]]\nTail\n", out)

	same, err := RewriteIndex("no directives", "notes", nil)
	require.NoError(t, err)
	require.Equal(t, "no directives", same)
}

func TestMembers_CollidingStemsUseTargetPath(t *testing.T) {
	members := Members("![[a/intro]]\n![[b/intro]]\n![[a-intro]]\n![[a/intro|Again]]\n", "/m", ".md")
	require.Len(t, members, 3)
	require.Equal(t, []string{"a-intro-1", "b-intro", "a-intro"},
		[]string{members[0].Stem, members[1].Stem, members[2].Stem})
	require.Len(t, members[0].Occurrences, 2)
	require.Equal(t, "Again", members[0].Occurrences[1].Display())
}

func TestPathStem(t *testing.T) {
	require.Equal(t, "a-intro", pathStem("a/intro"))
	require.Equal(t, "a-b-intro", pathStem("./a/b/intro.md"))
	require.Equal(t, "shared-intro", pathStem("../shared/intro"))
	require.Equal(t, "intro", pathStem("intro"))
}

func TestNavBlock(t *testing.T) {
	members := Members("![[a]]\n![[b|Bee]]\n", "/m", ".md")
	require.Equal(t, "\n\nIndex: [[p]] | Next: [[p_b|Bee]]\n", navBlock("p", members, 0))
	require.Equal(t, "\n\nPrevious: [[p_a|a]] | Index: [[p]]\n", navBlock("p", members, 1))
	require.Equal(t, "\n\nIndex: [[p]]\n", navBlock("p", members[:1], 0))
}

func TestMemberUID(t *testing.T) {
	require.Equal(t, MemberUID("g", "intro"), MemberUID("g", "intro"))
	require.NotEqual(t, MemberUID("g", "intro"), MemberUID("g", "methods"))
	require.NotEqual(t, MemberUID("g", "intro"), MemberUID("h", "intro"))
}

func TestFingerprint_IgnoresIdentityFields(t *testing.T) {
	base := map[string]any{"title": "intro", "position": 1}
	withIdentity := map[string]any{"title": "intro", "position": 1, "uid": "x", "revision": "y", mdfp.FingerprintField: "z"}

	a, err := Fingerprint(base, "body")
	require.NoError(t, err)
	b, err := Fingerprint(withIdentity, "body")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := Fingerprint(base, "other body")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestRevision_OutsideRepository(t *testing.T) {
	require.Empty(t, Revision(t.TempDir()))
}

func TestSummaryDuration(t *testing.T) {
	fx := newGardenFixture(t)
	summary, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)
	require.Greater(t, summary.Duration, time.Duration(0))
}

func TestGardenBuild_IdentityFieldsLead(t *testing.T) {
	fx := newGardenFixture(t)

	_, err := newTestGarden(t, &fakeConverter{}, 1).Build(context.Background(), fx.index, fx.out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(fx.out, "g_intro.md"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "---\ntitle: intro\nuid: "+MemberUID("g", "intro")+"\nposition: 1\n"), string(data))
}

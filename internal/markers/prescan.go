// Package markers numbers figures and tables across an ordered list of files.
//
// PreScan is the only place numbers are assigned. It walks the files once, in
// member order, and produces the global label map plus the per-file offsets a
// later per-file build adds to its local marker index.
package markers

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// Label is the assignment of one label token.
type Label struct {
	Kind   Kind   `json:"kind" yaml:"kind"`
	Number int    `json:"number" yaml:"number"`
	File   string `json:"file" yaml:"file"`
}

// LabelMap maps a label token such as "fig:flow" to its assignment.
type LabelMap map[string]Label

// Max returns the highest number assigned to a label of kind, 0 if none.
func (m LabelMap) Max(kind Kind) int {
	highest := 0
	for _, l := range m {
		if l.Kind == kind && l.Number > highest {
			highest = l.Number
		}
	}
	return highest
}

// Offsets are the figure and table markers contributed by every file
// preceding a given file.
type Offsets struct {
	Figures int `json:"figures" yaml:"figures"`
	Tables  int `json:"tables" yaml:"tables"`
}

// Number returns the absolute number of the n-th (1-based) local marker of kind.
func (o Offsets) Number(kind Kind, n int) int {
	if kind == KindTable {
		return o.Tables + n
	}
	return o.Figures + n
}

// Counters is the running state of a scan.
type Counters struct {
	Figures int
	Tables  int
}

// Next counts m and returns its number.
func (c *Counters) Next(m Marker) int {
	if m.Kind == KindTable {
		c.Tables++
		return c.Tables
	}
	c.Figures++
	return c.Figures
}

// Offsets returns the current counter values as offsets.
func (c Counters) Offsets() Offsets {
	return Offsets{Figures: c.Figures, Tables: c.Tables}
}

// Options configures PreScan.
type Options struct {
	// Scanner recognizes markers. Defaults to LineScanner.
	Scanner Scanner
	// Report receives unreadable-file and duplicate-label warnings.
	Report *report.Result
	Logger *slog.Logger
}

// Result is the outcome of a pre-scan. It must be treated as read-only once
// PreScan returns.
type Result struct {
	Files   []string  // scanned files, in order
	Labels  LabelMap  // label token -> assignment
	Offsets []Offsets // Offsets[i] belongs to Files[i]
	Totals  Counters  // markers counted over all files
}

// OffsetsFor returns the offsets recorded for file.
func (r *Result) OffsetsFor(file string) (Offsets, bool) {
	for i, f := range r.Files {
		if f == file {
			return r.Offsets[i], true
		}
	}
	return Offsets{}, false
}

// PreScan numbers every marker of files in file order, then line order.
//
// Only the body after a leading metadata block is scanned. Every marker
// advances its kind's counter whether or not it is labeled. A file that cannot
// be read gets zero offsets and contributes no markers; later files are
// numbered as if it were empty. A missing file is left for the member build to
// report. A label seen twice keeps its last assignment.
func PreScan(files []string, opts Options) *Result {
	if opts.Scanner == nil {
		opts.Scanner = LineScanner{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Report == nil {
		opts.Report = report.New(opts.Logger)
	}

	res := &Result{
		Files:   append([]string(nil), files...),
		Labels:  make(LabelMap),
		Offsets: make([]Offsets, len(files)),
	}

	for i, file := range files {
		// #nosec G304 -- member files come from the user's index file.
		data, err := os.ReadFile(file)
		if errors.Is(err, fs.ErrNotExist) {
			opts.Logger.Debug("Pre-scan skipped missing member", logfields.File(file))
			continue
		}
		if err != nil {
			opts.Report.Warn(report.KindUnreadableFile, file, "",
				fmt.Sprintf("cannot read member during pre-scan, numbering continues without it: %v", err))
			continue
		}
		res.Offsets[i] = res.Totals.Offsets()
		scanFile(&res.Totals, file, body(data), res.Labels, opts)
	}

	opts.Logger.Debug("Pre-scan complete",
		slog.Int("files", len(files)),
		slog.Int("figures", res.Totals.Figures),
		slog.Int("tables", res.Totals.Tables),
		slog.Int("labels", len(res.Labels)))
	return res
}

// body returns the text after a leading metadata block. A block that does not
// parse is treated as text, as the member build does.
func body(data []byte) string {
	block, rest, had, _, err := frontmatter.Split(data)
	if err != nil || !had {
		return string(data)
	}
	if _, err := frontmatter.ParseYAML(block); err != nil {
		return string(data)
	}
	return string(rest)
}

func scanFile(c *Counters, file, content string, labels LabelMap, opts Options) {
	for _, m := range opts.Scanner.Scan(content) {
		n := c.Next(m)
		if m.Label == "" {
			continue
		}
		if prev, dup := labels[m.Label]; dup {
			opts.Report.Warn(report.KindDuplicateLabel, file, m.Label,
				fmt.Sprintf("label already assigned number %d in %s; the later marker wins", prev.Number, prev.File))
		}
		labels[m.Label] = Label{Kind: m.Kind, Number: n, File: file}
		opts.Logger.Debug("Label assigned", logfields.Label(m.Label), logfields.File(file), slog.Int("number", n))
	}
}

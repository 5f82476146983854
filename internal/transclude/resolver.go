// Package transclude resolves ![[target]] inclusion directives by substituting
// the referenced file's body, depth first.
package transclude

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/report"
)

// DefaultExtension is appended to directive targets that have no extension.
const DefaultExtension = ".md"

// ErrCyclicInclusion is returned when a file includes itself, directly or
// through other files.
var ErrCyclicInclusion = errors.New("cyclic inclusion")

// Options configures a Resolver.
type Options struct {
	// Extension is appended to targets without one. Defaults to DefaultExtension.
	Extension string
	// Report receives missing, unreadable and malformed warnings. A fresh
	// Result is created when nil.
	Report *report.Result
	Logger *slog.Logger
}

// Resolver substitutes inclusion directives with file content. It only reads
// from the filesystem.
type Resolver struct {
	ext    string
	report *report.Result
	logger *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{ext: opts.Extension, report: opts.Report, logger: opts.Logger}
	if r.ext == "" {
		r.ext = DefaultExtension
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.report == nil {
		r.report = report.New(r.logger)
	}
	return r
}

// Report returns the result warnings are recorded into.
func (r *Resolver) Report() *report.Result {
	return r.report
}

// Resolve replaces every directive in content with the resolved body of its
// target, looked up relative to baseDir. Unresolvable directives are kept
// verbatim and recorded as warnings. The only error is a cyclic inclusion.
func (r *Resolver) Resolve(content, baseDir string) (string, error) {
	return r.resolve(content, baseDir, nil)
}

// ResolveFrom is Resolve for content read from origin, so that a directive
// pointing back at origin is reported as a cycle.
func (r *Resolver) ResolveFrom(content, baseDir, origin string) (string, error) {
	var stack []string
	if origin != "" {
		stack = append(stack, cleanAbs(origin))
	}
	return r.resolve(content, baseDir, stack)
}

func (r *Resolver) resolve(content, baseDir string, stack []string) (string, error) {
	directives := ParseDirectives(content)
	if len(directives) == 0 {
		return content, nil
	}

	from := ""
	if len(stack) > 0 {
		from = stack[len(stack)-1]
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, d := range directives {
		b.WriteString(content[last:d.Start])
		last = d.End

		path := cleanAbs(filepath.Join(baseDir, filepath.FromSlash(WithExtension(d.Target, r.ext))))
		if slices.Contains(stack, path) {
			chain := append(append([]string(nil), stack...), path)
			return "", ferrors.InclusionError("cyclic inclusion").
				WithCause(fmt.Errorf("%w: %s", ErrCyclicInclusion, strings.Join(chain, " -> "))).
				WithContext(logfields.KeyTarget, d.Target).
				WithContext(logfields.KeyFile, from).
				Build()
		}

		body, ok := r.load(path, d, from)
		if !ok {
			b.WriteString(d.Raw)
			continue
		}

		resolved, err := r.resolve(body, baseDir, append(stack, path))
		if err != nil {
			return "", err
		}
		b.WriteString(resolved)
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

// load reads the directive target and strips its metadata block. ok is false
// when the directive must be left in place.
func (r *Resolver) load(path string, d Directive, from string) (string, bool) {
	// #nosec G304 -- path comes from a directive in the user's own manuscript.
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.report.Warn(report.KindMissingInclusionTarget, from, d.Target,
			fmt.Sprintf("inclusion target not found: %s", path))
		return "", false
	case err != nil:
		r.report.Warn(report.KindUnreadableFile, from, d.Target,
			fmt.Sprintf("cannot read inclusion target: %v", err))
		return "", true
	}

	body, _, err := frontmatter.Strip(string(data))
	if err != nil {
		r.report.Warn(report.KindMalformedMetadata, path, "",
			"metadata block is not closed; including file as-is")
	}
	r.logger.Debug("Transcluded file", logfields.Target(d.Target), logfields.Path(path))
	return body, true
}

func cleanAbs(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

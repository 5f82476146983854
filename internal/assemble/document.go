package assemble

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/citations"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"git.home.luguber.info/inful/manuscript/internal/logfields"
	"git.home.luguber.info/inful/manuscript/internal/report"
	"git.home.luguber.info/inful/manuscript/internal/transclude"
)

// DocumentOptions describes a single-document assembly.
type DocumentOptions struct {
	// Source is the manuscript file to assemble.
	Source string
	// Frontmatter, when set, is written ahead of the source body.
	Frontmatter string
	// CitationSource is the file whose citation keys are added to the
	// bibliography when IncludeCitations is set.
	CitationSource   string
	IncludeCitations bool
	// Extension is appended to inclusion targets without one.
	Extension string
	Logger    *slog.Logger
}

// AssembleDocument returns the converter input for opts together with the
// recoverable problems met on the way. The returned error is fatal: the
// source or front matter cannot be read, or inclusion is cyclic.
func AssembleDocument(opts DocumentOptions) (string, *report.Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rep := report.New(logger)

	// #nosec G304 -- manuscript files are named by the user.
	raw, err := os.ReadFile(opts.Source)
	if err != nil {
		return "", rep, readError(err, opts.Source)
	}
	merged := string(raw)

	if opts.Frontmatter != "" {
		// #nosec G304 -- manuscript files are named by the user.
		fm, err := os.ReadFile(opts.Frontmatter)
		if err != nil {
			return "", rep, readError(err, opts.Frontmatter)
		}
		logger.Info("Merging front matter", logfields.File(opts.Frontmatter))
		merged = mergeFrontmatter(string(fm), merged, opts.Source, rep)
	}

	if opts.IncludeCitations && opts.CitationSource != "" {
		keys, err := citations.ExtractFile(opts.CitationSource)
		if err != nil {
			rep.Warn(report.KindUnreadableFile, opts.CitationSource, "",
				fmt.Sprintf("cannot read citation source: %v", err))
		}
		if keys != "" {
			block, err := citations.NociteBlock(keys)
			if err != nil {
				return "", rep, ferrors.WrapError(err, ferrors.CategoryInternal, "render nocite block").Build()
			}
			logger.Info("Including citations from secondary file", logfields.File(opts.CitationSource))
			merged = block + merged
		}
	}

	resolver := transclude.NewResolver(transclude.Options{Extension: opts.Extension, Report: rep, Logger: logger})
	resolved, err := resolver.ResolveFrom(merged, filepath.Dir(opts.Source), opts.Source)
	if err != nil {
		rep.Add(report.Issue{Kind: report.KindCyclicInclusion, Severity: report.SeverityError, File: opts.Source, Message: err.Error()})
		return "", rep, err
	}
	return resolved, rep, nil
}

// mergeFrontmatter writes fm, a newline, then body without its own metadata
// block so the result carries a single one.
func mergeFrontmatter(fm, body, source string, rep *report.Result) string {
	stripped, _, err := frontmatter.Strip(body)
	if err != nil {
		rep.Warn(report.KindMalformedMetadata, source, "",
			"metadata block is not closed; keeping the source as-is")
		stripped = body
	}
	var b strings.Builder
	b.WriteString(fm)
	if !strings.HasSuffix(fm, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(stripped)
	if stripped != "" && !strings.HasSuffix(stripped, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

func readError(err error, path string) error {
	if isMissing(err) {
		return ferrors.WrapError(err, ferrors.CategoryNotFound, "manuscript file not found").
			Fatal().WithContext("path", path).Build()
	}
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read manuscript file").
		Fatal().WithContext("path", path).Build()
}

// Package report collects the recoverable problems found while assembling a
// manuscript. Every issue is logged when it is recorded, so nothing degrades
// silently.
package report

import (
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/manuscript/internal/logfields"
)

// Severity indicates the importance level of an issue.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Kind identifies the failure class of an issue.
type Kind string

const (
	KindMissingInclusionTarget Kind = "missing_inclusion_target"
	KindUnreadableFile         Kind = "unreadable_file"
	KindMalformedMetadata      Kind = "malformed_metadata_block"
	KindCollaboratorFailure    Kind = "collaborator_failure"
	KindCyclicInclusion        Kind = "cyclic_inclusion"
	KindDuplicateLabel         Kind = "duplicate_label"
	KindAssetCopy              Kind = "asset_copy"
	KindWriteFailure           Kind = "write_failure"
)

// Issue is a single recorded problem.
type Issue struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"-"`
	File     string   `json:"file,omitempty"`   // file being processed
	Target   string   `json:"target,omitempty"` // referenced file or label, if any
	Message  string   `json:"message"`
}

// Result accumulates issues. It is safe for concurrent use; the zero value
// logs through slog.Default.
type Result struct {
	mu     sync.Mutex
	issues []Issue
	logger *slog.Logger
}

// New returns a Result logging through logger.
func New(logger *slog.Logger) *Result {
	return &Result{logger: logger}
}

// Add records issue and logs it.
func (r *Result) Add(issue Issue) {
	r.mu.Lock()
	r.issues = append(r.issues, issue)
	logger := r.logger
	r.mu.Unlock()

	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{logfields.Kind(string(issue.Kind))}
	if issue.File != "" {
		attrs = append(attrs, logfields.File(issue.File))
	}
	if issue.Target != "" {
		attrs = append(attrs, logfields.Target(issue.Target))
	}
	switch issue.Severity {
	case SeverityError:
		logger.Error(issue.Message, attrs...)
	case SeverityInfo:
		logger.Info(issue.Message, attrs...)
	default:
		logger.Warn(issue.Message, attrs...)
	}
}

// Warn records a warning-level issue.
func (r *Result) Warn(kind Kind, file, target, message string) {
	r.Add(Issue{Kind: kind, Severity: SeverityWarning, File: file, Target: target, Message: message})
}

// Issues returns a copy of the recorded issues in recording order.
func (r *Result) Issues() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Issue(nil), r.issues...)
}

// ByKind returns the recorded issues of the given kind.
func (r *Result) ByKind(kind Kind) []Issue {
	var out []Issue
	for _, issue := range r.Issues() {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	return r.count(SeverityError) > 0
}

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool {
	return r.count(SeverityWarning) > 0
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(severity Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, issue := range r.issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

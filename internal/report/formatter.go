package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter writes a Result for humans or machines.
type Formatter interface {
	Format(w io.Writer, title string, result *Result) error
}

// NewFormatter returns the formatter for format ("text" or "json").
func NewFormatter(format string) Formatter {
	if format == "json" {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs issues grouped in recording order followed by a summary.
func (f *TextFormatter) Format(w io.Writer, title string, result *Result) error {
	var b strings.Builder
	rule := strings.Repeat("━", 60)

	fmt.Fprintf(&b, "%s\n%s\n", title, rule)
	for _, issue := range result.Issues() {
		icon := "⚠"
		switch issue.Severity {
		case SeverityError:
			icon = "✗"
		case SeverityInfo:
			icon = "ℹ"
		}
		location := issue.File
		if issue.Target != "" {
			location += " → " + issue.Target
		}
		fmt.Fprintf(&b, "%s %s\n  %s [%s]: %s\n", icon, location, issue.Severity, issue.Kind, issue.Message)
	}

	errs, warns := result.ErrorCount(), result.WarningCount()
	fmt.Fprintf(&b, "%s\n", rule)
	switch {
	case errs == 0 && warns == 0:
		b.WriteString("No issues found.\n")
	default:
		fmt.Fprintf(&b, "%d error%s, %d warning%s\n", errs, pluralize(errs), warns, pluralize(warns))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	Title        string      `json:"title"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue is an Issue with its severity spelled out.
type JSONIssue struct {
	Issue
	Severity string `json:"severity"`
}

// NewJSONOutput converts result for JSON encoding.
func NewJSONOutput(title string, result *Result) JSONOutput {
	out := JSONOutput{
		Title:        title,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Issues:       []JSONIssue{},
	}
	for _, issue := range result.Issues() {
		out.Issues = append(out.Issues, JSONIssue{Issue: issue, Severity: strings.ToLower(issue.Severity.String())})
	}
	return out
}

// Format outputs the result as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, title string, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONOutput(title, result))
}

func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}

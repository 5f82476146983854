package markers

import (
	"regexp"
	"strings"
)

// Kind distinguishes figure markers from table markers. The value doubles as
// the label prefix ("fig" in "#fig:flow").
type Kind string

const (
	KindFigure Kind = "fig"
	KindTable  Kind = "tbl"
)

// Marker is one figure or table callout found in a file.
type Marker struct {
	Kind  Kind
	Label string // "fig:<id>" or "tbl:<id>", empty when unlabeled
	Line  int    // 1-based line in the scanned content
}

// Scanner finds markers in a file's text, in text order.
type Scanner interface {
	Scan(content string) []Marker
}

var (
	// imagePattern matches a Markdown image; ![[...]] inclusion directives do not match.
	imagePattern = regexp.MustCompile(`!\[[^\[\]]*\]\(`)
	figLabel     = regexp.MustCompile(`#(fig:[A-Za-z0-9_-]+)`)
	tblLabel     = regexp.MustCompile(`#(tbl:[A-Za-z0-9_-]+)`)
)

// LineScanner recognizes markers line by line without parsing the document.
//
// A figure marker is a line holding a Markdown image. A table marker is a
// pandoc table caption line, starting with "Table:" or "table:". A caption
// starting with ": " only counts when the block directly before or after it is
// a table, so definition lists are not mistaken for captions. A `#fig:<id>` or
// `#tbl:<id>` token on the same line labels the marker. Lines inside fenced
// code blocks are ignored.
type LineScanner struct{}

// Scan implements Scanner.
func (LineScanner) Scan(content string) []Marker {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	fenced := fencedLines(lines)

	var out []Marker
	for i, line := range lines {
		if fenced[i] {
			continue
		}
		if imagePattern.MatchString(line) {
			out = append(out, Marker{Kind: KindFigure, Label: firstLabel(figLabel, line), Line: i + 1})
		}
		if isTableCaption(lines, i) {
			out = append(out, Marker{Kind: KindTable, Label: firstLabel(tblLabel, line), Line: i + 1})
		}
	}
	return out
}

func isTableCaption(lines []string, i int) bool {
	trimmed := strings.TrimLeft(lines[i], " ")
	if strings.HasPrefix(trimmed, "Table:") || strings.HasPrefix(trimmed, "table:") {
		return true
	}
	if !strings.HasPrefix(trimmed, ": ") {
		return false
	}
	return adjacentTable(lines, i, -1) || adjacentTable(lines, i, 1)
}

// adjacentTable reports whether the block next to line i in direction step,
// skipping blank lines, contains a table row or rule.
func adjacentTable(lines []string, i, step int) bool {
	j := i + step
	for j >= 0 && j < len(lines) && strings.TrimSpace(lines[j]) == "" {
		j += step
	}
	for ; j >= 0 && j < len(lines); j += step {
		line := strings.TrimSpace(lines[j])
		if line == "" {
			return false
		}
		if isTableLine(line) {
			return true
		}
	}
	return false
}

func isTableLine(line string) bool {
	if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "+") {
		return true
	}
	return strings.Contains(line, "---") && strings.Trim(line, " -:+=|") == ""
}

func firstLabel(re *regexp.Regexp, line string) string {
	if m := re.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// fencedLines marks lines that belong to ``` or ~~~ fenced code blocks,
// fences included.
func fencedLines(lines []string) []bool {
	marks := make([]bool, len(lines))
	active := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, fence := range []string{"```", "~~~"} {
			if !strings.HasPrefix(trimmed, fence) {
				continue
			}
			switch active {
			case "":
				active = fence
				marks[i] = true
			case fence:
				active = ""
				marks[i] = true
			}
		}
		if active != "" {
			marks[i] = true
		}
	}
	return marks
}

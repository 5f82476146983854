// Package frontmatter handles the leading `---` delimited metadata block of a
// manuscript source file.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a metadata block.
const Delimiter = "---"

// ErrMissingClosingDelimiter indicates the content started with a metadata
// delimiter but no closing delimiter followed.
var ErrMissingClosingDelimiter = errors.New("metadata block start delimiter found but closing delimiter is missing")

// Style captures the newline shape of a document for stable rewriting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Split separates a line-anchored YAML metadata block from the body.
//
// If the content does not start with a delimiter line, had is false and body
// is the full input.
func Split(content []byte) (block []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(Delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, style, nil
	}

	closeSeq := []byte(nl + Delimiter + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line without trailing newline.
		if bytes.HasSuffix(content, []byte(nl+Delimiter)) && len(content) > start+len(Delimiter) {
			end := len(content) - len(Delimiter)
			return content[start:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, style, nil
}

// Strip removes the leading metadata block from text and returns the trimmed
// remainder.
//
// The block spans from the opening delimiter to the next occurrence of the
// delimiter, wherever it appears. Content that does not start with the
// delimiter is returned unchanged with stripped=false. An opening delimiter
// without a partner returns the content unchanged and ErrMissingClosingDelimiter.
func Strip(text string) (body string, stripped bool, err error) {
	if !strings.HasPrefix(text, Delimiter) {
		return text, false, nil
	}
	rest := text[len(Delimiter):]
	idx := strings.Index(rest, Delimiter)
	if idx < 0 {
		return text, false, ErrMissingClosingDelimiter
	}
	return strings.TrimSpace(rest[idx+len(Delimiter):]), true, nil
}

// ParseYAML parses a raw metadata block (without delimiters) into a map.
func ParseYAML(block []byte) (map[string]any, error) {
	if len(block) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(block, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// Block renders fields as a complete delimited metadata block followed by a
// blank line. Keys named in lead come first, the rest are sorted.
func Block(fields map[string]any, lead ...string) (string, error) {
	raw, err := Encoding{Lead: lead}.Encode(fields)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	b.Write(raw)
	b.WriteString(Delimiter + "\n\n")
	return b.String(), nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		newline = "\r\n"
	}
	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}

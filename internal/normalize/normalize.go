// Package normalize post-processes converter output for the note collection.
package normalize

import (
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
)

// escapes lists the converter's escaping artifacts in the order they must be
// undone. Doubled brackets go first so a wiki link is restored whole.
var escapes = [][2]string{
	{`\[\[`, `[[`},
	{`\]\]`, `]]`},
	{`\[`, `[`},
	{`\]`, `]`},
	{`\_`, `_`},
	{`\*`, `*`},
}

// Escapes reverses bracket, underscore and asterisk escaping.
func Escapes(text string) string {
	for _, pair := range escapes {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return text
}

// WithMetadata prepends a metadata block built from fields to text. Keys named
// in lead are written first.
func WithMetadata(text string, fields map[string]any, lead ...string) (string, error) {
	block, err := frontmatter.Block(fields, lead...)
	if err != nil {
		return "", err
	}
	return block + strings.TrimLeft(text, "\n"), nil
}

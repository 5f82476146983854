// Package markdown offers small goldmark-backed queries over Markdown bodies
// and byte-range editing that avoids re-rendering.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

func parse(body []byte) gmast.Node {
	return goldmark.New().Parser().Parse(text.NewReader(body))
}

// Images returns the destinations of all images in body, in document order,
// without duplicates.
func Images(body []byte) []string {
	var out []string
	seen := make(map[string]struct{})
	_ = gmast.Walk(parse(body), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		img, ok := n.(*gmast.Image)
		if !ok {
			return gmast.WalkContinue, nil
		}
		dest := string(img.Destination)
		if _, dup := seen[dest]; !dup && dest != "" {
			seen[dest] = struct{}{}
			out = append(out, dest)
		}
		return gmast.WalkContinue, nil
	})
	return out
}

// Title returns the plain text of the first level-1 heading, or "".
func Title(body []byte) string {
	var title string
	_ = gmast.Walk(parse(body), func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok || h.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = strings.TrimSpace(plainText(h, body))
		return gmast.WalkStop, nil
	})
	return title
}

func plainText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(plainText(c, source))
		}
	}
	return buf.String()
}

package assemble

import (
	"fmt"

	"git.home.luguber.info/inful/manuscript/internal/markdown"
)

// RewriteIndex replaces every directive of members in index with a list-item
// link to the member's collection output. Each occurrence keeps its own
// alias. Everything else is kept byte for byte.
func RewriteIndex(index, prefix string, members []Member) (string, error) {
	var edits []markdown.Edit
	for _, m := range members {
		for _, d := range m.Occurrences {
			link := fmt.Sprintf("- [[%s|%s]]", OutputName(prefix, m.Stem), d.Display())
			edits = append(edits, markdown.Edit{Start: d.Start, End: d.End, Replacement: []byte(link)})
		}
	}
	if len(edits) == 0 {
		return index, nil
	}
	out, err := markdown.ApplyEdits([]byte(index), edits)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

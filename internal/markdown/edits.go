package markdown

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidEdit is returned for ranges that are negative, reversed, out of
// bounds or overlapping.
var ErrInvalidEdit = errors.New("invalid edit")

// Edit replaces source[Start:End] with Replacement. Offsets refer to the
// original source; End is exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits returns a copy of source with edits applied. Edits may be given
// in any order but must not overlap. source is never modified.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	ordered := slices.SortedStableFunc(slices.Values(edits), func(a, b Edit) int {
		return cmp.Compare(a.Start, b.Start)
	})

	size, pos := len(source), 0
	for _, e := range ordered {
		switch {
		case e.Start < 0 || e.End < e.Start || e.End > len(source):
			return nil, fmt.Errorf("%w: range [%d:%d] in %d bytes", ErrInvalidEdit, e.Start, e.End, len(source))
		case e.Start < pos:
			return nil, fmt.Errorf("%w: range [%d:%d] overlaps the previous edit", ErrInvalidEdit, e.Start, e.End)
		}
		size += len(e.Replacement) - (e.End - e.Start)
		pos = e.End
	}

	out := make([]byte, 0, size)
	pos = 0
	for _, e := range ordered {
		out = append(out, source[pos:e.Start]...)
		out = append(out, e.Replacement...)
		pos = e.End
	}
	return append(out, source[pos:]...), nil
}

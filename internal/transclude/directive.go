package transclude

import (
	"path"
	"regexp"
	"strings"
)

// directivePattern matches ![[target]] and ![[target|alias]].
var directivePattern = regexp.MustCompile(`!\[\[([^\[\]]+)\]\]`)

// Directive is one inclusion directive found in a text.
type Directive struct {
	Raw    string // full directive text, e.g. "![[methods|Methods]]"
	Target string // file name before the alias separator
	Alias  string // display alias, empty when absent
	Start  int    // byte offset of Raw in the scanned text
	End    int    // exclusive end offset
}

// Display returns the alias, or the target's file stem when no alias was given.
func (d Directive) Display() string {
	if d.Alias != "" {
		return d.Alias
	}
	return Stem(d.Target)
}

// ParseDirectives returns the inclusion directives of content in order of
// appearance. It does not follow them.
func ParseDirectives(content string) []Directive {
	matches := directivePattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Directive, 0, len(matches))
	for _, m := range matches {
		inner := content[m[2]:m[3]]
		target, alias, _ := strings.Cut(inner, "|")
		out = append(out, Directive{
			Raw:    content[m[0]:m[1]],
			Target: strings.TrimSpace(target),
			Alias:  strings.TrimSpace(alias),
			Start:  m[0],
			End:    m[1],
		})
	}
	return out
}

// WithExtension appends ext to target when target has none.
func WithExtension(target, ext string) string {
	if path.Ext(target) != "" {
		return target
	}
	return target + ext
}

// Stem returns the base name of target without its extension.
func Stem(target string) string {
	base := path.Base(strings.ReplaceAll(target, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

package assemble

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/transclude"
)

// Member is one file of a collection, in index order.
type Member struct {
	// Position is 1-based.
	Position int
	// Directive is the first directive naming the member.
	Directive transclude.Directive
	// Occurrences holds every directive naming the member, Directive included.
	Occurrences []transclude.Directive
	// Path is the member file on disk.
	Path string
	// Stem names the outputs derived from the member. It is the file stem
	// unless two members share one, in which case it is built from the
	// target's path ("a/intro" becomes "a-intro").
	Stem string
}

// Display is the alias given in the index, or the file stem.
func (m Member) Display() string {
	return m.Directive.Display()
}

// OutputName is the file a member is written to inside the collection.
func OutputName(prefix, stem string) string {
	return prefix + "_" + stem
}

// Members lists the directives of index in order of first appearance,
// resolved against baseDir. Repeated targets are listed once. Every member
// gets a distinct Stem.
func Members(index, baseDir, ext string) []Member {
	if ext == "" {
		ext = transclude.DefaultExtension
	}
	var out []Member
	byPath := make(map[string]int)
	for _, d := range transclude.ParseDirectives(index) {
		p := filepath.Join(baseDir, filepath.FromSlash(transclude.WithExtension(d.Target, ext)))
		if i, dup := byPath[p]; dup {
			out[i].Occurrences = append(out[i].Occurrences, d)
			continue
		}
		byPath[p] = len(out)
		out = append(out, Member{
			Position:    len(out) + 1,
			Directive:   d,
			Occurrences: []transclude.Directive{d},
			Path:        p,
			Stem:        transclude.Stem(d.Target),
		})
	}
	disambiguate(out)
	return out
}

// disambiguate renames members whose stems collide after their target path,
// and appends the position when even that is taken.
func disambiguate(members []Member) {
	count := make(map[string]int, len(members))
	for _, m := range members {
		count[m.Stem]++
	}
	taken := make(map[string]bool, len(members))
	for _, m := range members {
		if count[m.Stem] == 1 {
			taken[m.Stem] = true
		}
	}
	for i := range members {
		if count[members[i].Stem] == 1 {
			continue
		}
		name := pathStem(members[i].Directive.Target)
		if taken[name] {
			name = fmt.Sprintf("%s-%d", name, members[i].Position)
		}
		taken[name] = true
		members[i].Stem = name
	}
}

// pathStem joins the segments of target with "-", dropping "." and ".."
// segments and the extension.
func pathStem(target string) string {
	clean := path.Clean(strings.ReplaceAll(target, "\\", "/"))
	clean = strings.TrimSuffix(clean, path.Ext(clean))
	parts := make([]string, 0, strings.Count(clean, "/")+1)
	for _, s := range strings.Split(clean, "/") {
		if s != "" && s != "." && s != ".." {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

func memberPaths(members []Member) []string {
	paths := make([]string, len(members))
	for i, m := range members {
		paths[i] = m.Path
	}
	return paths
}

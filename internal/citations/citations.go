// Package citations extracts bibliography keys from manuscript text.
package citations

import (
	"os"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
	"gopkg.in/yaml.v3"
)

// Separator joins keys in the extracted list.
const Separator = "; "

var keyPattern = regexp.MustCompile(`@[a-zA-Z][a-zA-Z0-9_:-]*`)

// excludedPrefixes are figure and table cross-references and the contact
// address key, which look like citations but are not.
var excludedPrefixes = []string{"@Fig", "@Tbl", "@email"}

// Keys returns the citation keys of content, deduplicated and sorted.
func Keys(content string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, key := range keyPattern.FindAllString(content, -1) {
		if excluded(key) {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Extract returns the keys of content joined by Separator, or "" when there are none.
func Extract(content string) string {
	return strings.Join(Keys(content), Separator)
}

// ExtractFile is Extract over a file. A missing file yields "" without error.
func ExtractFile(path string) (string, error) {
	// #nosec G304 -- path is a configured manuscript file.
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return Extract(string(data)), nil
}

// NociteBlock renders the metadata block asking the converter to list keys
// in the bibliography even though the document does not cite them.
func NociteBlock(keys string) (string, error) {
	return frontmatter.Block(map[string]any{
		"nocite": &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.LiteralStyle, Value: keys + "\n"},
	})
}

func excluded(key string) bool {
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

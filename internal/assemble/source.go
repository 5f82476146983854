package assemble

import (
	"errors"
	"fmt"
	"os"

	"git.home.luguber.info/inful/manuscript/internal/frontmatter"
)

// SourceFile is a manuscript file read once from disk.
type SourceFile struct {
	Path    string
	Content string
	// Fields holds the leading metadata block, nil when there is none.
	Fields map[string]any
	// Body is Content without the metadata block.
	Body string
}

// ReadSource reads and splits path. A malformed metadata block is returned as
// an error alongside a SourceFile whose Body is the whole content.
func ReadSource(path string) (*SourceFile, error) {
	// #nosec G304 -- manuscript files are named by the user.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	src := &SourceFile{Path: path, Content: string(data), Body: string(data)}

	block, body, had, _, err := frontmatter.Split(data)
	if err != nil {
		return src, fmt.Errorf("%s: %w", path, err)
	}
	if !had {
		return src, nil
	}
	fields, err := frontmatter.ParseYAML(block)
	if err != nil {
		return src, fmt.Errorf("%s: invalid metadata block: %w", path, err)
	}
	src.Fields = fields
	src.Body = string(body)
	return src, nil
}

// isMissing reports whether err means the file does not exist.
func isMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

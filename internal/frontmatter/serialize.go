package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Encoding controls how metadata fields are written.
type Encoding struct {
	// Newline ends every line. Defaults to "\n".
	Newline string
	// Lead lists keys written first, in this order. The other keys follow
	// sorted. Nested mappings are always sorted.
	Lead []string
}

// Encode renders fields as YAML without delimiters. A *yaml.Node value is
// written as given, so callers can pick a scalar style. No fields yield no
// output.
func (e Encoding) Encode(fields map[string]any) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}
	doc, err := e.mapping(fields)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := errors.Join(enc.Encode(doc), enc.Close()); err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	out := buf.Bytes()
	if e.Newline != "" && e.Newline != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(e.Newline))
	}
	return out, nil
}

func (e Encoding) keys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for _, k := range e.Lead {
		if _, ok := fields[k]; ok && !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}
	lead := len(keys)
	for k := range fields {
		if !slices.Contains(keys[:lead], k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[lead:])
	return keys
}

func (e Encoding) mapping(fields map[string]any) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range e.keys(fields) {
		v, err := valueNode(fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, v)
	}
	return m, nil
}

func valueNode(v any) (*yaml.Node, error) {
	switch vv := v.(type) {
	case *yaml.Node:
		return vv, nil
	case map[string]any:
		return Encoding{}.mapping(vv)
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

package commands

import (
	"fmt"

	"git.home.luguber.info/inful/manuscript/internal/citations"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
)

// CitationsCmd implements the 'citations' command.
type CitationsCmd struct {
	File string `arg:"" optional:"" help:"File to scan (default: sources.si)"`
}

func (c *CitationsCmd) Run(g *Global, root *CLI) error {
	path := c.File
	if path == "" {
		cfg, err := root.LoadConfig()
		if err != nil {
			return err
		}
		path = root.Resolve(cfg.Sources.SI)
	}

	keys, err := citations.ExtractFile(path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read citation source").
			WithContext("path", path).Build()
	}
	if keys == "" {
		root.Logger().Info("No citations found")
		return nil
	}
	fmt.Fprintln(g.Out, keys)
	return nil
}

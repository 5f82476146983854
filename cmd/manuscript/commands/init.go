package commands

import (
	"fmt"

	"git.home.luguber.info/inful/manuscript/internal/config"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	fmt.Fprintf(g.Out, "Writing configuration to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write configuration").
			WithContext("path", root.Config).Build()
	}
	fmt.Fprintln(g.Out, successStyle.Render("✓ Configuration written"))
	return nil
}

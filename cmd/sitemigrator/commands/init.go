package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitemigrator/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite an existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write sitemigrator.yaml into" type:"path"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	path := root.ConfigPath()
	if i.Output != "" {
		path = filepath.Join(i.Output, config.DefaultPath)
	}
	if err := config.Init(path, i.Force); err != nil {
		return err
	}
	_, err := fmt.Fprintf(g.Out, "Wrote configuration to %s\n", path)
	return err
}

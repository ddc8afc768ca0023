package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/engines"
)

// DetectCmd implements the 'detect' command.
type DetectCmd struct {
	Source string `arg:"" help:"Source site directory" type:"path"`
	Strict bool   `help:"Fail when more than one engine matches"`
}

func (d *DetectCmd) Run(g *Global, root *CLI) error {
	if _, err := root.LoadConfig(g); err != nil {
		return err
	}
	m := migrate.NewMigrator(engines.NewRegistry(engines.WithLogger(g.Logger))).WithLogger(g.Logger)
	eng, matches, err := m.Detect(d.Source)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Out, "%s: %s\n", eng.Name(), eng.Description())
	for _, other := range matches[1:] {
		_, _ = fmt.Fprintf(g.Out, "also matches %s (lower priority)\n", other.Name())
	}
	if d.Strict && len(matches) > 1 {
		return errors.DetectionError("ambiguous site type").
			WithPath(d.Source).
			WithContext("matches", len(matches)).
			Build()
	}
	return nil
}

package commands

import (
	"fmt"

	"github.com/pterm/pterm"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/engines"
)

// EnginesCmd implements the 'engines' command.
type EnginesCmd struct{}

func (e *EnginesCmd) Run(g *Global) error {
	data := pterm.TableData{{"Engine", "Description"}}
	for _, eng := range engines.NewRegistry(engines.WithLogger(g.Logger)).Engines() {
		data = append(data, []string{eng.Name(), eng.Description()})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Out, table)
	return err
}

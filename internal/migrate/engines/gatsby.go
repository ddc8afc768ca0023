package engines

import (
	"context"

	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

func newGatsby(env env) *engine {
	return &engine{
		name:        "Gatsby",
		description: "Gatsby sites (recognized; conversion not yet implemented)",
		detect:      detectGatsby,
		stages:      gatsbyStages,
		env:         env,
	}
}

func detectGatsby(dir string) bool {
	return fileAt(dir, "gatsby-config.js") || fileAt(dir, "gatsby-config.ts") || packageDependsOn(dir, "gatsby")
}

// gatsbyStages records the only outcome a Gatsby run has: a warning and no
// changes. React components have no mechanical Liquid translation.
func gatsbyStages(models.Options, env) ([]models.StageDef, error) {
	return models.NewPipeline().
		Add(models.StageContent, func(_ context.Context, st *models.State) error {
			st.Warnf("Gatsby migration is not yet implemented")
			return nil
		}).
		Build(), nil
}

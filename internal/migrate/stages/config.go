package stages

import (
	"context"
	"maps"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemigrator/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemigrator/internal/frontmatter"
	"git.home.luguber.info/inful/sitemigrator/internal/migrate/models"
)

// ConfigFile is the Jekyll site configuration path.
const ConfigFile = "_config.yml"

// SiteExtractor reads the source generator's configuration and returns
// Jekyll site settings (title, description, url, ...).
type SiteExtractor func(ctx context.Context, st *models.State) (map[string]any, error)

// baseConfig holds the settings every migrated site gets.
func baseConfig() map[string]any {
	return map[string]any{
		"markdown": "kramdown",
		"baseurl":  "",
		"collections": map[string]any{
			"pages": map[string]any{"output": true, "permalink": "/:path/"},
		},
		"exclude": []string{"MIGRATION.md", "Gemfile", "Gemfile.lock", "node_modules", "vendor"},
	}
}

// JekyllConfig returns the configuration stage: extract settings, merge them
// over the base configuration and write _config.yml.
func JekyllConfig(extract SiteExtractor) models.Stage {
	return func(ctx context.Context, st *models.State) error {
		site := map[string]any{}
		if extract != nil {
			var err error
			if site, err = extract(ctx, st); err != nil {
				return err
			}
		}
		return WriteJekyllConfig(st, site)
	}
}

// WriteJekyllConfig writes _config.yml with keys in sorted order. Values in
// site override the base configuration. The same input always yields the same
// bytes.
func WriteJekyllConfig(st *models.State, site map[string]any) error {
	cfg := baseConfig()
	for k, v := range site {
		if v == nil || v == "" {
			continue
		}
		cfg[k] = v
	}
	data, err := frontmatter.SerializeYAML(cfg, "\n")
	if err != nil {
		return errors.InternalError("encode Jekyll configuration").WithCause(err).Build()
	}
	maps.Copy(st.Site, cfg)
	return WriteCreated(st, ConfigFile, data, "Jekyll configuration generated")
}

// RestoreSite reloads the site settings of a configuration stage that ran in
// an earlier attempt from the _config.yml it wrote.
func RestoreSite(st *models.State) error {
	path := filepath.Join(st.Options.DestDir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError(err, "read Jekyll configuration").WithPath(path).Build()
	}
	cfg, err := frontmatter.ParseYAML(data)
	if err != nil {
		return errors.ParseError(err, "invalid Jekyll configuration").WithPath(path).Build()
	}
	maps.Copy(st.Site, cfg)
	return nil
}

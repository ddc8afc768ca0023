package engines

import (
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/sitemigrator/internal/markdown"
	"git.home.luguber.info/inful/sitemigrator/internal/plugin"
)

// Registry holds the supported engines in detection order. The list is
// fixed when the Registry is built.
type Registry struct {
	engines []Engine
}

// Option configures the collaborators engines share.
type Option func(*env)

// WithPlugins sets the extension loader registry engines report plugins through.
func WithPlugins(r *plugin.Registry) Option {
	return func(e *env) { e.plugins = r }
}

// WithRenderer sets the Markdown renderer used for pre-rendered includes.
func WithRenderer(r markdown.Renderer) Option {
	return func(e *env) { e.renderer = r }
}

// WithLogger sets the logger engines run with.
func WithLogger(l *slog.Logger) Option {
	return func(e *env) { e.logger = l }
}

// NewRegistry returns the shipped engines. Engines with specific marker files
// come before engines with generic ones: Slate before Middleman, and Zola,
// whose signature is a config.toml plus two common directory names, last.
func NewRegistry(opts ...Option) *Registry {
	e := env{
		plugins:  plugin.DefaultRegistry(),
		renderer: markdown.NewRenderer(markdown.DefaultOptions()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return &Registry{engines: []Engine{
		newSlate(e),
		newMiddleman(e),
		newOctopress(e),
		newBridgetown(e),
		newJigsaw(e),
		newNanoc(e),
		newNikola(e),
		newMkDocs(e),
		newMetalsmith(e),
		newEleventy(e),
		newGatsby(e),
		newZola(e),
	}}
}

// Engines returns the engines in detection order.
func (r *Registry) Engines() []Engine {
	return append([]Engine(nil), r.engines...)
}

// Select returns the first engine whose detector matches sourceDir.
func (r *Registry) Select(sourceDir string) (Engine, bool) {
	for _, e := range r.engines {
		if e.Detect(sourceDir) {
			return e, true
		}
	}
	return nil, false
}

// Matches returns every engine whose detector matches sourceDir, in order.
// More than one match means Select resolved an ambiguity by order.
func (r *Registry) Matches(sourceDir string) []Engine {
	var out []Engine
	for _, e := range r.engines {
		if e.Detect(sourceDir) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds an engine by name, ignoring case.
func (r *Registry) Lookup(name string) (Engine, bool) {
	for _, e := range r.engines {
		if strings.EqualFold(e.Name(), name) {
			return e, true
		}
	}
	return nil, false
}

// Package plugin is the boundary for extension code found in source sites
// (Middleman extensions, Eleventy plugins, Metalsmith plugins). Migrations
// never execute that code; every shipped Loader reports ErrUnsupported so
// engines can record which plugins need a Jekyll replacement.
package plugin

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned by loaders that cannot run a plugin kind.
var ErrUnsupported = errors.New("plugin loading is not supported")

// Kind identifies how a source generator extension is implemented.
type Kind string

const (
	// KindNative is compiled code loaded into the process.
	KindNative Kind = "native"
	// KindScript is interpreted source (Ruby, JavaScript, Python, PHP).
	KindScript Kind = "script"
	// KindEmbedded is a sandboxed module run by an embedded runtime.
	KindEmbedded Kind = "embedded"
)

// Ref names one plugin referenced by a source site.
type Ref struct {
	Name string
	Kind Kind
	// Origin is the slash-separated source file that references the plugin.
	Origin string
}

func (r Ref) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.Name, r.Kind, r.Origin)
}

// Handle is a loaded plugin instance.
type Handle interface {
	Ref() Ref
}

// Loader is the capability required to run extension code.
type Loader interface {
	Load(ctx context.Context, ref Ref) (Handle, error)
	Init(ctx context.Context, h Handle, config map[string]any) error
	Invoke(ctx context.Context, h Handle, hook string, payload []byte) ([]byte, error)
	Unload(ctx context.Context, h Handle) error
}

// unsupportedLoader refuses every operation.
type unsupportedLoader struct{ kind Kind }

func (l unsupportedLoader) err() error {
	return fmt.Errorf("%s loader: %w", l.kind, ErrUnsupported)
}

func (l unsupportedLoader) Load(context.Context, Ref) (Handle, error) { return nil, l.err() }
func (l unsupportedLoader) Init(context.Context, Handle, map[string]any) error {
	return l.err()
}
func (l unsupportedLoader) Invoke(context.Context, Handle, string, []byte) ([]byte, error) {
	return nil, l.err()
}
func (l unsupportedLoader) Unload(context.Context, Handle) error { return l.err() }

// Unsupported returns a Loader for kind that always reports ErrUnsupported.
func Unsupported(kind Kind) Loader { return unsupportedLoader{kind: kind} }

package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry maps plugin kinds to loaders.
type Registry struct {
	mu      sync.RWMutex
	loaders map[Kind]Loader
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[Kind]Loader)}
}

// Register adds a loader for kind.
// Returns an error if a loader for kind already exists.
func (r *Registry) Register(kind Kind, l Loader) error {
	if l == nil {
		return fmt.Errorf("cannot register nil loader for %s", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[kind]; exists {
		return fmt.Errorf("loader for %s already registered", kind)
	}
	r.loaders[kind] = l
	return nil
}

// Loader returns the loader registered for kind.
func (r *Registry) Loader(kind Kind) (Loader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("no loader for plugin kind %q", kind)
	}
	return l, nil
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.loaders))
	for k := range r.loaders {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Attempt runs the load/init/unload lifecycle for ref. With the shipped
// loaders it always returns an error wrapping ErrUnsupported.
func (r *Registry) Attempt(ctx context.Context, ref Ref, config map[string]any) error {
	l, err := r.Loader(ref.Kind)
	if err != nil {
		return err
	}
	h, err := l.Load(ctx, ref)
	if err != nil {
		return err
	}
	defer func() { _ = l.Unload(ctx, h) }()
	return l.Init(ctx, h, config)
}

// globalRegistry is the default registry used throughout the application.
var globalRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range []Kind{KindNative, KindScript, KindEmbedded} {
		_ = r.Register(k, Unsupported(k))
	}
	return r
}

// DefaultRegistry returns the registry with the shipped loaders.
func DefaultRegistry() *Registry {
	return globalRegistry
}

package patch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/addonkit/internal/ctxlog"
)

// Option configures a Registry.
type Option func(*Registry)

// WithObserver sets the observer handed to every target defined through the registry.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry maps target names to live targets.
type Registry struct {
	mu       sync.RWMutex
	targets  map[string]*Target
	observer Observer
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		targets:  make(map[string]*Target),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define creates a target with its original members.
func (r *Registry) Define(ctx context.Context, name string, members Overrides) (*Target, error) {
	logger := ctxlog.FromContext(ctx)
	if name == "" {
		return nil, fmt.Errorf("patch: target name must not be empty")
	}
	for _, member := range members.sortedNames() {
		m := members[member]
		if m.kind == 0 || (m.kind == kindMethod && m.fn == nil) {
			return nil, fmt.Errorf("patch: target %s has an invalid member %q", name, member)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.targets[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTarget, name)
	}
	t := newTarget(name, members, r.observer)
	r.targets[name] = t
	logger.Debug("Defined patch target.", "target", name, "members", members.sortedNames())
	return t, nil
}

// Target looks up a target by name.
func (r *Registry) Target(name string) (*Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return t, nil
}

// Apply stacks a layer on the named target.
func (r *Registry) Apply(ctx context.Context, target, layer string, overrides Overrides) (*Layer, error) {
	logger := ctxlog.FromContext(ctx)
	t, err := r.Target(target)
	if err != nil {
		return nil, err
	}
	l, err := t.Apply(layer, overrides)
	if err != nil {
		return nil, err
	}
	logger.Debug("Applied patch layer.", "target", target, "layer", layer, "id", l.ID(), "members", l.Members())
	return l, nil
}

// Unpatch removes the most recent layer of the named target.
func (r *Registry) Unpatch(ctx context.Context, target, layer string) error {
	logger := ctxlog.FromContext(ctx)
	t, err := r.Target(target)
	if err != nil {
		return err
	}
	if err := t.Unpatch(layer); err != nil {
		return err
	}
	logger.Debug("Removed patch layer.", "target", target, "layer", layer)
	return nil
}

// Call dispatches a method on the named target.
func (r *Registry) Call(ctx context.Context, target, method string, args ...any) (any, error) {
	t, err := r.Target(target)
	if err != nil {
		return nil, err
	}
	return t.Call(ctx, method, args...)
}

// Targets returns the defined target names, sorted.
func (r *Registry) Targets() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.targets))
	for name := range r.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every target and its layers.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = make(map[string]*Target)
}

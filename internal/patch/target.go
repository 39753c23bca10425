package patch

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Layer is one set of overrides applied on a target.
type Layer struct {
	id      string
	name    string
	members Overrides
	target  *Target
}

// ID returns the unique identifier assigned when the layer was applied.
func (l *Layer) ID() string { return l.id }

// Name returns the diagnostic name of the layer.
func (l *Layer) Name() string { return l.name }

// Target returns the target the layer was applied on.
func (l *Layer) Target() *Target { return l.target }

// Members returns the names overridden by the layer, sorted.
func (l *Layer) Members() []string { return l.members.sortedNames() }

// Remove unpatches this exact layer. It must be the most recent layer on
// its target; a handle whose layer was already removed returns
// ErrUnknownLayer even if a newer layer reuses its name.
func (l *Layer) Remove() error {
	t := l.target
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.layers)
	if n > 0 && t.layers[n-1] == l {
		t.popLocked()
		return nil
	}
	for _, other := range t.layers {
		if other == l {
			return fmt.Errorf("%w: %q on %s (top is %q)", ErrNotTopLayer, l.name, t.name, t.layers[n-1].name)
		}
	}
	return fmt.Errorf("%w: %q (id %s) on %s", ErrUnknownLayer, l.name, l.id, t.name)
}

// Target is a shared object that layers are stacked on.
type Target struct {
	name     string
	mu       sync.RWMutex
	original Overrides
	layers   []*Layer
	observer Observer
}

// NewTarget creates a standalone target with the given original members.
func NewTarget(name string, members Overrides) *Target {
	return newTarget(name, members, nopObserver{})
}

func newTarget(name string, members Overrides, observer Observer) *Target {
	return &Target{
		name:     name,
		original: members.clone(),
		observer: observer,
	}
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Layers returns the names of the applied layers, oldest first.
func (t *Target) Layers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, len(t.layers))
	for i, l := range t.layers {
		names[i] = l.name
	}
	return names
}

// Has reports whether the target currently exposes a member with that name.
func (t *Target) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.lookupLocked(name)
	return ok
}

// Members returns the names of all members visible through the layer stack, sorted.
func (t *Target) Members() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.original))
	for name := range t.original {
		seen[name] = struct{}{}
	}
	for _, l := range t.layers {
		for name := range l.members {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the current value of a value member.
func (t *Target) Get(name string) (any, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.lookupLocked(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, t.name, name)
	}
	if m.kind != kindValue {
		return nil, fmt.Errorf("%w: %s.%s is a method", ErrMemberKind, t.name, name)
	}
	return m.value, nil
}

// Apply stacks a new layer on the target. Methods may be new or replace
// existing methods; values must replace an existing value.
func (t *Target) Apply(layerName string, overrides Overrides) (*Layer, error) {
	if layerName == "" {
		return nil, errors.New("patch: layer name must not be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, l := range t.layers {
		if l.name == layerName {
			return nil, fmt.Errorf("%w: %q on %s", ErrDuplicateLayer, layerName, t.name)
		}
	}

	for _, name := range overrides.sortedNames() {
		m := overrides[name]
		prev, exists := t.lookupLocked(name)
		switch m.kind {
		case kindMethod:
			if m.fn == nil {
				return nil, fmt.Errorf("patch: layer %q sets nil method %s.%s", layerName, t.name, name)
			}
			if exists && prev.kind != kindMethod {
				return nil, fmt.Errorf("%w: layer %q replaces %s %s.%s with a method", ErrMemberKind, layerName, prev.kind, t.name, name)
			}
		case kindValue:
			if !exists {
				return nil, fmt.Errorf("%w: layer %q overrides %s.%s which has no previous value", ErrUnknownMember, layerName, t.name, name)
			}
			if prev.kind != kindValue {
				return nil, fmt.Errorf("%w: layer %q replaces %s %s.%s with a value", ErrMemberKind, layerName, prev.kind, t.name, name)
			}
		default:
			return nil, fmt.Errorf("patch: layer %q has an invalid member %s.%s", layerName, t.name, name)
		}
	}

	layer := &Layer{
		id:      uuid.NewString(),
		name:    layerName,
		members: overrides.clone(),
		target:  t,
	}
	t.layers = append(t.layers, layer)
	t.observer.LayerApplied(t.name, layerName)
	return layer, nil
}

// Unpatch removes the most recent layer, which must be named layerName.
func (t *Target) Unpatch(layerName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.layers)
	if n > 0 && t.layers[n-1].name == layerName {
		t.popLocked()
		return nil
	}
	for _, l := range t.layers {
		if l.name == layerName {
			return fmt.Errorf("%w: %q on %s (top is %q)", ErrNotTopLayer, layerName, t.name, t.layers[n-1].name)
		}
	}
	return fmt.Errorf("%w: %q on %s", ErrUnknownLayer, layerName, t.name)
}

func (t *Target) popLocked() {
	n := len(t.layers)
	top := t.layers[n-1]
	t.layers[n-1] = nil
	t.layers = t.layers[:n-1]
	t.observer.LayerRemoved(t.name, top.name)
}

// lookupLocked returns the visible member: newest layer first, then the original.
func (t *Target) lookupLocked(name string) (Member, bool) {
	for i := len(t.layers) - 1; i >= 0; i-- {
		if m, ok := t.layers[i].members[name]; ok {
			return m, true
		}
	}
	m, ok := t.original[name]
	return m, ok
}

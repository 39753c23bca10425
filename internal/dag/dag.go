package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrUnknownAddon is returned when a dependency names an addon that was
	// never added.
	ErrUnknownAddon = errors.New("unknown addon")
	// ErrCycle is returned by Order when addons depend on each other.
	ErrCycle = errors.New("dependency cycle")
)

type set map[string]struct{}

// Graph records which addons depend on which. It is safe for concurrent use.
type Graph struct {
	mu         sync.RWMutex
	requires   map[string]set // addon -> its dependencies
	requiredBy map[string]set // addon -> addons depending on it
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		requires:   make(map[string]set),
		requiredBy: make(map[string]set),
	}
}

// Add registers an addon. Adding it again is a no-op.
func (g *Graph) Add(addon string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.requires[addon]; ok {
		return
	}
	g.requires[addon] = make(set)
	g.requiredBy[addon] = make(set)
}

// Has reports whether addon was added.
func (g *Graph) Has(addon string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.requires[addon]
	return ok
}

// Require records that addon depends on dependency. Both must have been
// added.
func (g *Graph) Require(addon, dependency string) error {
	if addon == dependency {
		return fmt.Errorf("addon %q depends on itself", addon)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.requires[addon]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownAddon, addon)
	}
	if _, ok := g.requires[dependency]; !ok {
		return fmt.Errorf("addon %q depends on %w %q", addon, ErrUnknownAddon, dependency)
	}
	g.requires[addon][dependency] = struct{}{}
	g.requiredBy[dependency][addon] = struct{}{}
	return nil
}

// Requires returns the sorted direct dependencies of addon.
func (g *Graph) Requires(addon string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps, ok := g.requires[addon]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAddon, addon)
	}
	return sorted(deps), nil
}

// RequiredBy returns the sorted addons that depend directly on addon.
func (g *Graph) RequiredBy(addon string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	deps, ok := g.requiredBy[addon]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAddon, addon)
	}
	return sorted(deps), nil
}

// Cycle returns one dependency cycle as a path that starts and ends on the
// same addon, or nil if there is none. The path found is stable across
// calls.
func (g *Graph) Cycle() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cycle()
}

func (g *Graph) cycle() []string {
	const (
		unseen = iota
		active
		done
	)
	state := make(map[string]int, len(g.requires))
	var stack, found []string

	var visit func(addon string) bool
	visit = func(addon string) bool {
		state[addon] = active
		stack = append(stack, addon)
		for _, dep := range sorted(g.requires[addon]) {
			switch state[dep] {
			case active:
				i := slices.Index(stack, dep)
				found = append(slices.Clone(stack[i:]), dep)
				return true
			case unseen:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[addon] = done
		return false
	}

	for _, addon := range sortedKeys(g.requires) {
		if state[addon] == unseen && visit(addon) {
			return found
		}
	}
	return nil
}

// Order returns every addon after all of its dependencies. Addons that
// become loadable at the same time go in name order, so the result is the
// same on every run.
func (g *Graph) Order() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	waiting := make(map[string]int, len(g.requires))
	var ready []string
	for addon, deps := range g.requires {
		waiting[addon] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, addon)
		}
	}
	slices.Sort(ready)

	order := make([]string, 0, len(g.requires))
	for len(ready) > 0 {
		addon := ready[0]
		ready = ready[1:]
		order = append(order, addon)

		for _, next := range sorted(g.requiredBy[addon]) {
			waiting[next]--
			if waiting[next] == 0 {
				i, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, i, next)
			}
		}
	}

	if len(order) != len(g.requires) {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(g.cycle(), " -> "))
	}
	return order, nil
}

func sorted(s set) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func sortedKeys(m map[string]set) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

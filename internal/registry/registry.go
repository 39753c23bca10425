package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/vk/addonkit/internal/ctxlog"
)

var (
	// ErrNotFound is returned by Lookup for a missing category or key.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when DuplicateReject refuses an overwrite.
	ErrDuplicateKey = errors.New("duplicate key")
)

// DuplicatePolicy decides what Register does with a key that already exists.
type DuplicatePolicy int

const (
	// DuplicateWarn overwrites and logs a warning.
	DuplicateWarn DuplicatePolicy = iota
	// DuplicateOverwrite overwrites silently.
	DuplicateOverwrite
	// DuplicateReject refuses the overwrite unless the registration is forced.
	DuplicateReject
)

// ParseDuplicatePolicy converts "warn", "allow" or "reject".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "warn", "":
		return DuplicateWarn, nil
	case "allow", "overwrite":
		return DuplicateOverwrite, nil
	case "reject":
		return DuplicateReject, nil
	}
	return DuplicateWarn, fmt.Errorf("invalid duplicate policy %q: must be 'warn', 'allow' or 'reject'", s)
}

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateOverwrite:
		return "allow"
	case DuplicateReject:
		return "reject"
	default:
		return "warn"
	}
}

// Registration outcomes reported to the Observer.
const (
	OutcomeAdded       = "added"
	OutcomeOverwritten = "overwritten"
	OutcomeRejected    = "rejected"
)

// Observer receives registration outcomes and lookup results.
type Observer interface {
	EntryRegistered(category, outcome string)
	EntryLookedUp(category string, hit bool)
}

type nopObserver struct{}

func (nopObserver) EntryRegistered(string, string) {}
func (nopObserver) EntryLookedUp(string, bool)     {}

// Entry is a registered value.
type Entry struct {
	Key      string
	Value    any
	Sequence int
	order    int
}

type category struct {
	entries map[string]*Entry
	counter int
}

// Option configures a Registry.
type Option func(*Registry)

// WithDuplicatePolicy sets the duplicate key policy.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithObserver sets the registration observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// Registry holds every category.
type Registry struct {
	mu         sync.RWMutex
	categories map[string]*category
	policy     DuplicatePolicy
	observer   Observer
}

// New creates and initializes a new Registry instance.
func New(opts ...Option) *Registry {
	r := &Registry{
		categories: make(map[string]*category),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the configured duplicate policy.
func (r *Registry) Policy() DuplicatePolicy { return r.policy }

type addOptions struct {
	sequence    int
	hasSequence bool
	force       bool
}

// AddOption tunes a single registration.
type AddOption func(*addOptions)

// Sequence orders the entry within its category; lower comes first.
func Sequence(n int) AddOption {
	return func(o *addOptions) {
		o.sequence = n
		o.hasSequence = true
	}
}

// Force allows overwriting an existing key under DuplicateReject.
func Force() AddOption {
	return func(o *addOptions) { o.force = true }
}

// Register stores value under category/key.
func (r *Registry) Register(ctx context.Context, categoryName, key string, value any, opts ...AddOption) error {
	logger := ctxlog.FromContext(ctx)
	if categoryName == "" || key == "" {
		return fmt.Errorf("registry: category and key must not be empty")
	}
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[categoryName]
	if !ok {
		c = &category{entries: make(map[string]*Entry)}
		r.categories[categoryName] = c
	}

	prev, exists := c.entries[key]
	outcome := OutcomeAdded
	if exists {
		if r.policy == DuplicateReject && !o.force {
			r.observer.EntryRegistered(categoryName, OutcomeRejected)
			return fmt.Errorf("%w: %s/%s", ErrDuplicateKey, categoryName, key)
		}
		outcome = OutcomeOverwritten
		if r.policy == DuplicateWarn && !o.force {
			logger.Warn("Registry key overwritten.", "category", categoryName, "key", key)
		}
	}

	c.counter++
	entry := &Entry{Key: key, Value: value, order: c.counter}
	switch {
	case o.hasSequence:
		entry.Sequence = o.sequence
	case exists:
		entry.Sequence = prev.Sequence
	}
	c.entries[key] = entry

	r.observer.EntryRegistered(categoryName, outcome)
	logger.Debug("Registered entry.", "category", categoryName, "key", key, "sequence", entry.Sequence, "outcome", outcome)
	return nil
}

// Lookup returns the value registered under category/key.
func (r *Registry) Lookup(categoryName, key string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.categories[categoryName]; ok {
		if e, ok := c.entries[key]; ok {
			r.observer.EntryLookedUp(categoryName, true)
			return e.Value, nil
		}
	}
	r.observer.EntryLookedUp(categoryName, false)
	return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, categoryName, key)
}

// LookupAs is Lookup with a type assertion.
func LookupAs[T any](r *Registry, categoryName, key string) (T, error) {
	var zero T
	v, err := r.Lookup(categoryName, key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("registry: %s/%s holds %T, not %T", categoryName, key, v, zero)
	}
	return typed, nil
}

// Contains reports whether category/key is registered.
func (r *Registry) Contains(categoryName, key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[categoryName]
	if !ok {
		return false
	}
	_, ok = c.entries[key]
	return ok
}

// Remove deletes category/key.
func (r *Registry) Remove(categoryName, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[categoryName]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, categoryName, key)
	}
	if _, ok := c.entries[key]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, categoryName, key)
	}
	delete(c.entries, key)
	return nil
}

// Entries returns a snapshot of a category ordered by sequence, then by
// registration order.
func (r *Registry) Entries(categoryName string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.categories[categoryName]
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if n := cmp.Compare(a.Sequence, b.Sequence); n != 0 {
			return n
		}
		return cmp.Compare(a.order, b.order)
	})
	return out
}

// Categories returns the category names, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every category.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = make(map[string]*category)
}

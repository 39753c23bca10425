package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Observer receives declaration notifications.
type Observer interface {
	FieldsDeclared(model string, total int)
}

type nopObserver struct{}

func (nopObserver) FieldsDeclared(string, int) {}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver sets the declaration observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

type relationKey struct {
	model string
	field string
}

// Registry is the arena of declared models.
type Registry struct {
	mu        sync.RWMutex
	models    []*Model
	index     map[string]int
	relations map[relationKey]int
	observer  Observer
}

// NewRegistry creates an empty model registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{observer: nopObserver{}}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// Reset drops every model.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = nil
	r.index = make(map[string]int)
	r.relations = make(map[relationKey]int)
}

// Declare adds fields to a model, creating it on first use. A field that
// already exists is replaced by the new descriptor.
func (r *Registry) Declare(ctx context.Context, source, name string, fields ...Field) error {
	logger := ctxlog.FromContext(ctx)
	if name == "" {
		return fmt.Errorf("model: name must not be empty")
	}

	validated := make([]Field, 0, len(fields))
	for _, f := range fields {
		v, err := f.Validate()
		if err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
		validated = append(validated, v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.lookupLocked(name)
	if m == nil {
		m = &Model{
			reg:    r,
			name:   name,
			index:  len(r.models),
			fields: make(map[string]Field),
		}
		r.models = append(r.models, m)
		r.index[name] = m.index
		logger.Debug("Declared model.", "model", name, "source", source)
	}
	if m.sealed {
		return fmt.Errorf("%w: %s already has records, cannot add fields from %s", ErrModelSealed, name, source)
	}

	for _, f := range validated {
		prev, exists := m.fields[f.Name]
		if !exists {
			m.order = append(m.order, f.Name)
		} else {
			if prev.Type != f.Type {
				logger.Debug("Field redeclared with a new type.", "model", name, "field", f.Name, "from", prev.Type.String(), "to", f.Type.String(), "source", source)
			}
			if prev.Relation != f.Relation {
				delete(r.relations, relationKey{model: name, field: f.Name})
			}
		}
		m.fields[f.Name] = f
	}
	if n := len(m.sources); n == 0 || m.sources[n-1] != source {
		m.sources = append(m.sources, source)
	}

	r.observer.FieldsDeclared(name, len(m.fields))
	logger.Debug("Declared fields.", "model", name, "source", source, "count", len(validated), "total", len(m.fields))
	return nil
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.lookupLocked(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns the declared model names, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for _, m := range r.models {
		names = append(names, m.name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the comodel of a relational field. The result is cached
// after the first successful resolution.
func (r *Registry) Resolve(model, field string) (*Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(model, field)
}

func (r *Registry) resolveLocked(model, field string) (*Model, error) {
	key := relationKey{model: model, field: field}
	if idx, ok := r.relations[key]; ok {
		return r.models[idx], nil
	}

	m := r.lookupLocked(model)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	f, ok := m.fields[field]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, model, field)
	}
	if !f.Type.IsRelational() {
		return nil, fmt.Errorf("%w: %s.%s is %s", ErrNotRelational, model, field, f.Type)
	}
	idx, ok := r.index[f.Relation]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s references %s: %w", ErrUnresolvedRelation, model, field, f.Relation, ErrUnknownModel)
	}
	r.relations[key] = idx
	return r.models[idx], nil
}

// Validate resolves every relational field and returns all failures.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, m := range r.models {
		for _, name := range m.order {
			f := m.fields[name]
			if !f.Type.IsRelational() {
				continue
			}
			comodel, err := r.resolveLocked(m.name, name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if f.Type == TypeOne2Many && f.Inverse != "" {
				inv, ok := comodel.fields[f.Inverse]
				if !ok || inv.Type != TypeMany2One || inv.Relation != m.name {
					errs = append(errs, fmt.Errorf("%w: %s.%s inverse %s.%s must be a many2one to %s", ErrUnresolvedRelation, m.name, name, comodel.name, f.Inverse, m.name))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// NewRecord creates a record of the model and seals the model.
func (r *Registry) NewRecord(model string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.lookupLocked(model)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	m.sealed = true
	m.nextID++
	return &Record{
		model:  m,
		id:     m.nextID,
		values: make(map[string]cty.Value),
	}, nil
}

func (r *Registry) lookupLocked(name string) *Model {
	idx, ok := r.index[name]
	if !ok {
		return nil
	}
	return r.models[idx]
}

package model

import "slices"

// Model is a record class: a name plus the union of all declared fields.
type Model struct {
	reg     *Registry
	name    string
	index   int
	fields  map[string]Field
	order   []string
	sources []string
	sealed  bool
	nextID  int64
}

// Name returns the model name, e.g. "hr.employee".
func (m *Model) Name() string { return m.name }

// Index returns the arena slot of the model.
func (m *Model) Index() int { return m.index }

// Fields returns the field descriptors in first-declaration order.
func (m *Model) Fields() []Field {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	out := make([]Field, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.fields[name])
	}
	return out
}

// Field returns the descriptor of one field.
func (m *Model) Field(name string) (Field, bool) {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	f, ok := m.fields[name]
	return f, ok
}

// Sources returns the declaring sources in declaration order.
func (m *Model) Sources() []string {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	return slices.Clone(m.sources)
}

// Sealed reports whether a record of this model has been created.
func (m *Model) Sealed() bool {
	m.reg.mu.RLock()
	defer m.reg.mu.RUnlock()
	return m.sealed
}

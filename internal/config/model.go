package config

import (
	"fmt"
	"sort"

	"github.com/vk/addonkit/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// Manifest is the unified representation of every loaded addon manifest.
type Manifest struct {
	Addons map[string]*AddonDefinition
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Addons: make(map[string]*AddonDefinition)}
}

// Add inserts an addon definition. An addon may be defined only once.
func (m *Manifest) Add(def *AddonDefinition) error {
	if prev, exists := m.Addons[def.Name]; exists {
		return fmt.Errorf("addon %q defined twice (%s and %s)", def.Name, prev.Source, def.Source)
	}
	m.Addons[def.Name] = def
	return nil
}

// Names returns the addon names, sorted.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Addons))
	for name := range m.Addons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge joins several manifests into one.
func Merge(manifests ...*Manifest) (*Manifest, error) {
	out := NewManifest()
	for _, m := range manifests {
		if m == nil {
			continue
		}
		for _, name := range m.Names() {
			if err := out.Add(m.Addons[name]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// AddonDefinition is the format-agnostic representation of one addon manifest.
type AddonDefinition struct {
	Name    string
	Version string
	Summary string
	Depends []string
	Source  string
	Models  []*ModelDeclaration
	Patches []*PatchDefinition
	Entries []*EntryDefinition
}

// ModelDeclaration adds fields to a model.
type ModelDeclaration struct {
	Name   string
	Fields []*FieldDefinition
}

// FieldDefinition describes one declared field.
type FieldDefinition struct {
	Name      string
	Type      model.FieldType
	Relation  string
	Inverse   string
	Label     string
	Required  bool
	Readonly  bool
	Selection []string
	Default   *cty.Value
}

// ToField converts the definition into a model descriptor.
func (f *FieldDefinition) ToField() model.Field {
	field := model.Field{
		Name:      f.Name,
		Type:      f.Type,
		Relation:  f.Relation,
		Inverse:   f.Inverse,
		Label:     f.Label,
		Required:  f.Required,
		Readonly:  f.Readonly,
		Selection: f.Selection,
	}
	if f.Default != nil {
		field.Default = *f.Default
	}
	return field
}

// PatchDefinition layers overrides on a target. Methods and Values map a
// member name to a handler name; Literals carry inline values.
type PatchDefinition struct {
	Target   string
	Layer    string
	Methods  map[string]string
	Values   map[string]string
	Literals map[string]cty.Value
}

// EntryDefinition registers a handler value in a registry category.
type EntryDefinition struct {
	Category string
	Key      string
	Handler  string
	Sequence *int
	Force    bool
}

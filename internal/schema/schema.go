// Package schema holds the HCL decoding structs for addon manifests.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a manifest file.
type File struct {
	Addons []*Addon `hcl:"addon,block"`
}

// Addon represents an `addon` block.
type Addon struct {
	Name     string           `hcl:"name,label"`
	Version  string           `hcl:"version,optional"`
	Summary  string           `hcl:"summary,optional"`
	Depends  []string         `hcl:"depends,optional"`
	Models   []*Model         `hcl:"model,block"`
	Patches  []*Patch         `hcl:"patch,block"`
	Registry []*RegistryEntry `hcl:"registry,block"`
}

// Model represents a `model` block adding fields to a record class.
type Model struct {
	Name   string   `hcl:"name,label"`
	Fields []*Field `hcl:"field,block"`
}

// Field represents a `field` block. Type is a type expression such as
// `char` or `many2one("hr.department")`.
type Field struct {
	Name      string         `hcl:"name,label"`
	Type      hcl.Expression `hcl:"type"`
	Label     string         `hcl:"string,optional"`
	Required  bool           `hcl:"required,optional"`
	Readonly  bool           `hcl:"readonly,optional"`
	Selection []string       `hcl:"selection,optional"`
	Default   hcl.Expression `hcl:"default,optional"`
}

// Patch represents a `patch` block layering overrides on a target.
type Patch struct {
	Target  string    `hcl:"target,label"`
	Layer   string    `hcl:"layer,optional"`
	Methods []*Method `hcl:"method,block"`
	Values  []*Value  `hcl:"value,block"`
}

// Method maps a method member to a registered Go handler.
type Method struct {
	Name    string `hcl:"name,label"`
	Handler string `hcl:"handler"`
}

// Value overrides a value member, either with a registered Go value or an
// inline literal.
type Value struct {
	Name    string         `hcl:"name,label"`
	Handler string         `hcl:"handler,optional"`
	Literal hcl.Expression `hcl:"literal,optional"`
}

// RegistryEntry represents a `registry` block.
type RegistryEntry struct {
	Category string `hcl:"category,label"`
	Key      string `hcl:"key,label"`
	Handler  string `hcl:"handler"`
	Sequence *int   `hcl:"sequence,optional"`
	Force    bool   `hcl:"force,optional"`
}

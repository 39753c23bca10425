package model

import (
	"fmt"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// FieldType is the declared type of a field.
type FieldType int

const (
	TypeInvalid FieldType = iota
	TypeChar
	TypeText
	TypeHTML
	TypeInteger
	TypeFloat
	TypeMonetary
	TypeBoolean
	TypeDate
	TypeDatetime
	TypeSelection
	TypeBinary
	TypeMany2One
	TypeOne2One
	TypeOne2Many
	TypeMany2Many
)

var fieldTypeNames = map[FieldType]string{
	TypeChar:      "char",
	TypeText:      "text",
	TypeHTML:      "html",
	TypeInteger:   "integer",
	TypeFloat:     "float",
	TypeMonetary:  "monetary",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeDatetime:  "datetime",
	TypeSelection: "selection",
	TypeBinary:    "binary",
	TypeMany2One:  "many2one",
	TypeOne2One:   "one2one",
	TypeOne2Many:  "one2many",
	TypeMany2Many: "many2many",
}

// ParseFieldType converts a keyword such as "many2one" into a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	for t, name := range fieldTypeNames {
		if name == s {
			return t, nil
		}
	}
	return TypeInvalid, fmt.Errorf("%w: unknown field type %q", ErrInvalidField, s)
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// IsRelational reports whether the type references another model.
func (t FieldType) IsRelational() bool {
	switch t {
	case TypeMany2One, TypeOne2One, TypeOne2Many, TypeMany2Many:
		return true
	}
	return false
}

// IsMultiple reports whether the type holds several related records.
func (t FieldType) IsMultiple() bool {
	return t == TypeOne2Many || t == TypeMany2Many
}

// CtyType returns the cty type values of this field are stored as. To-one
// relations hold a record id, to-many relations a list of ids.
func (t FieldType) CtyType() cty.Type {
	switch t {
	case TypeChar, TypeText, TypeHTML, TypeDate, TypeDatetime, TypeSelection, TypeBinary:
		return cty.String
	case TypeInteger, TypeFloat, TypeMonetary, TypeMany2One, TypeOne2One:
		return cty.Number
	case TypeBoolean:
		return cty.Bool
	case TypeOne2Many, TypeMany2Many:
		return cty.List(cty.Number)
	default:
		return cty.DynamicPseudoType
	}
}

// Field describes one attribute of a model. Descriptors are values and are
// never mutated once declared; redeclaring a field replaces the descriptor.
type Field struct {
	Name      string
	Type      FieldType
	Relation  string
	Inverse   string
	Label     string
	Required  bool
	Readonly  bool
	Selection []string
	// Default is cty.NilVal when the field declares none.
	Default cty.Value
}

// Validate checks the descriptor is self-consistent and normalizes its
// default to the field's cty type.
func (f Field) Validate() (Field, error) {
	if f.Name == "" {
		return f, fmt.Errorf("%w: field name must not be empty", ErrInvalidField)
	}
	if _, ok := fieldTypeNames[f.Type]; !ok {
		return f, fmt.Errorf("%w: field %q has no type", ErrInvalidField, f.Name)
	}
	if f.Type.IsRelational() && f.Relation == "" {
		return f, fmt.Errorf("%w: %s field %q needs a relation", ErrInvalidField, f.Type, f.Name)
	}
	if !f.Type.IsRelational() && f.Relation != "" {
		return f, fmt.Errorf("%w: %s field %q cannot have a relation", ErrInvalidField, f.Type, f.Name)
	}
	if f.Type == TypeSelection && len(f.Selection) == 0 {
		return f, fmt.Errorf("%w: selection field %q declares no choices", ErrInvalidField, f.Name)
	}
	if !f.Default.IsNull() {
		v, err := f.convert(f.Default)
		if err != nil {
			return f, fmt.Errorf("%w: default of %q: %v", ErrInvalidField, f.Name, err)
		}
		f.Default = v
	}
	f.Selection = slices.Clone(f.Selection)
	return f, nil
}

// DefaultValue returns the declared default, or the empty value of the
// field's type: null for scalars and to-one relations, an empty list for
// to-many relations.
func (f Field) DefaultValue() cty.Value {
	if !f.Default.IsNull() {
		return f.Default
	}
	if f.Type.IsMultiple() {
		return cty.ListValEmpty(cty.Number)
	}
	return cty.NullVal(f.Type.CtyType())
}

// convert coerces v into the field's type and enforces selection choices.
// A null to-many value becomes the empty list, matching DefaultValue.
func (f Field) convert(v cty.Value) (cty.Value, error) {
	if v.IsNull() {
		if f.Type.IsMultiple() {
			return cty.ListValEmpty(cty.Number), nil
		}
		return cty.NullVal(f.Type.CtyType()), nil
	}
	out, err := convert.Convert(v, f.Type.CtyType())
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", v.Type().FriendlyName(), f.Type, err)
	}
	if f.Type == TypeSelection && out.IsKnown() {
		if !slices.Contains(f.Selection, out.AsString()) {
			return cty.NilVal, fmt.Errorf("%q is not one of %v", out.AsString(), f.Selection)
		}
	}
	return out, nil
}

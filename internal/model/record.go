package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Record is a live instance of a sealed model.
type Record struct {
	model  *Model
	id     int64
	values map[string]cty.Value
}

// ID returns the record id, unique per model.
func (r *Record) ID() int64 { return r.id }

// Model returns the record's model.
func (r *Record) Model() *Model { return r.model }

// Get returns the field value, or the field's default when it was never set.
func (r *Record) Get(field string) (cty.Value, error) {
	f, ok := r.model.fields[field]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %s.%s", ErrUnknownField, r.model.name, field)
	}
	if v, ok := r.values[field]; ok {
		return v, nil
	}
	return f.DefaultValue(), nil
}

// IsSet reports whether the field was explicitly assigned.
func (r *Record) IsSet(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Set assigns a value, converting it to the field's type.
func (r *Record) Set(field string, v cty.Value) error {
	f, ok := r.model.fields[field]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, r.model.name, field)
	}
	converted, err := f.convert(v)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, r.model.name, field, err)
	}
	r.values[field] = converted
	return nil
}

// SetGo assigns a native Go value.
func (r *Record) SetGo(field string, v any) error {
	if v == nil {
		return r.Set(field, cty.NullVal(cty.DynamicPseudoType))
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: unable to infer cty.Type: %v", ErrInvalidValue, r.model.name, field, err)
	}
	val, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, r.model.name, field, err)
	}
	return r.Set(field, val)
}

// Discard drops explicit assignments so the fields read their defaults
// again. Without names every field is reset. It returns the number of
// values dropped.
func (r *Record) Discard(fields ...string) int {
	if len(fields) == 0 {
		n := len(r.values)
		clear(r.values)
		return n
	}
	n := 0
	for _, name := range fields {
		if _, ok := r.values[name]; ok {
			delete(r.values, name)
			n++
		}
	}
	return n
}

// Comodel resolves the model a relational field points at.
func (r *Record) Comodel(field string) (*Model, error) {
	return r.model.reg.Resolve(r.model.name, field)
}

// Object returns every field of the record as one cty object value.
func (r *Record) Object() cty.Value {
	attrs := make(map[string]cty.Value, len(r.model.fields))
	for name, f := range r.model.fields {
		if v, ok := r.values[name]; ok {
			attrs[name] = v
			continue
		}
		attrs[name] = f.DefaultValue()
	}
	return cty.ObjectVal(attrs)
}

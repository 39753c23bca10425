package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/addonkit/internal/config"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func translateAddon(ctx context.Context, a *schema.Addon, source string) (*config.AddonDefinition, error) {
	logger := ctxlog.FromContext(ctx).With("addon", a.Name)
	logger.Debug("Translating addon block.", "models", len(a.Models), "patches", len(a.Patches), "entries", len(a.Registry))

	def := &config.AddonDefinition{
		Name:    a.Name,
		Version: a.Version,
		Summary: a.Summary,
		Depends: a.Depends,
		Source:  source,
	}

	for _, m := range a.Models {
		decl := &config.ModelDeclaration{Name: m.Name}
		for _, f := range m.Fields {
			fd, err := translateField(ctx, f)
			if err != nil {
				return nil, fmt.Errorf("addon '%s', model '%s': %w", a.Name, m.Name, err)
			}
			decl.Fields = append(decl.Fields, fd)
		}
		def.Models = append(def.Models, decl)
	}

	for _, p := range a.Patches {
		pd, err := translatePatch(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("addon '%s': %w", a.Name, err)
		}
		if pd.Layer == "" {
			pd.Layer = a.Name
		}
		def.Patches = append(def.Patches, pd)
	}

	for _, e := range a.Registry {
		def.Entries = append(def.Entries, &config.EntryDefinition{
			Category: e.Category,
			Key:      e.Key,
			Handler:  e.Handler,
			Sequence: e.Sequence,
			Force:    e.Force,
		})
	}

	return def, nil
}

func translateField(ctx context.Context, f *schema.Field) (*config.FieldDefinition, error) {
	ft, relation, inverse, err := parseFieldType(ctx, f.Type)
	if err != nil {
		return nil, fmt.Errorf("field '%s': %w", f.Name, err)
	}

	fd := &config.FieldDefinition{
		Name:      f.Name,
		Type:      ft,
		Relation:  relation,
		Inverse:   inverse,
		Label:     f.Label,
		Required:  f.Required,
		Readonly:  f.Readonly,
		Selection: f.Selection,
	}

	if isExprDefined(ctx, f.Default, "default") {
		val, diags := f.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for field '%s': %w", f.Name, diags)
		}
		if !val.IsNull() {
			fd.Default = &val
		}
	}
	return fd, nil
}

func translatePatch(ctx context.Context, p *schema.Patch) (*config.PatchDefinition, error) {
	pd := &config.PatchDefinition{
		Target:   p.Target,
		Layer:    p.Layer,
		Methods:  make(map[string]string, len(p.Methods)),
		Values:   make(map[string]string),
		Literals: make(map[string]cty.Value),
	}

	for _, m := range p.Methods {
		if _, dup := pd.Methods[m.Name]; dup {
			return nil, fmt.Errorf("patch '%s': method '%s' overridden twice", p.Target, m.Name)
		}
		pd.Methods[m.Name] = m.Handler
	}

	for _, v := range p.Values {
		_, dupV := pd.Values[v.Name]
		_, dupL := pd.Literals[v.Name]
		if _, dupM := pd.Methods[v.Name]; dupV || dupL || dupM {
			return nil, fmt.Errorf("patch '%s': member '%s' overridden twice", p.Target, v.Name)
		}

		hasLiteral := isExprDefined(ctx, v.Literal, "literal")
		switch {
		case v.Handler != "" && hasLiteral:
			return nil, fmt.Errorf("patch '%s': value '%s' sets both handler and literal", p.Target, v.Name)
		case v.Handler != "":
			pd.Values[v.Name] = v.Handler
		case hasLiteral:
			val, diags := v.Literal.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("patch '%s': invalid literal for value '%s': %w", p.Target, v.Name, diags)
			}
			pd.Literals[v.Name] = val
		default:
			return nil, fmt.Errorf("patch '%s': value '%s' needs a handler or a literal", p.Target, v.Name)
		}
	}

	return pd, nil
}

// isExprDefined reports whether an optional attribute was actually present
// in the source. The decoder fills omitted optional expressions with a
// zero-width placeholder, so a nil check alone is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	defined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", defined,
	)
	return defined
}

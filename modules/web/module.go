// Package web is the base addon. It defines the form and list controllers
// other addons patch, and the field widgets they look up by type.
package web

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/env"
	"github.com/vk/addonkit/internal/handlers"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/zclconf/go-cty/cty"
)

const (
	// FormController saves and discards single records.
	FormController = "web.FormController"
	// ListRenderer renders records as text rows.
	ListRenderer = "web.ListRenderer"
)

// ErrValidation is returned by save when a record fails validation.
var ErrValidation = errors.New("validation error")

// Widget describes how a field type is displayed.
type Widget struct {
	Name     string
	Template string
}

// SaveResult is what the form controller's save method returns.
type SaveResult struct {
	Model string
	ID    int64
	Notes []string
}

// Module implements env.Module for the web addon.
type Module struct{}

// Name implements env.Module.
func (m *Module) Name() string { return "web" }

// Register implements env.Module.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterValue("web.widget_char", Widget{Name: "char", Template: "<input type=\"text\"/>"})
	h.RegisterValue("web.widget_boolean", Widget{Name: "boolean", Template: "<input type=\"checkbox\"/>"})
	h.RegisterValue("web.widget_selection", Widget{Name: "selection", Template: "<select/>"})
	h.RegisterValue("web.widget_many2one", Widget{Name: "many2one", Template: "<a class=\"o_form_uri\"/>"})
}

// Bootstrap implements env.Bootstrapper. It defines the patchable targets.
func (m *Module) Bootstrap(ctx context.Context, e *env.Env) error {
	if _, err := e.Patches.Define(ctx, FormController, patch.Overrides{
		"save":    patch.Method(save),
		"discard": patch.Method(discard),
		"limit":   patch.Value(40),
	}); err != nil {
		return err
	}
	_, err := e.Patches.Define(ctx, ListRenderer, patch.Overrides{
		"render":    patch.Method(render),
		"page_size": patch.Value(80),
	})
	return err
}

func recordArg(call *patch.Call) (*model.Record, error) {
	rec, ok := call.Arg(0).(*model.Record)
	if !ok || rec == nil {
		return nil, fmt.Errorf("%s.%s expects a *model.Record, got %T", call.Target.Name(), call.Method, call.Arg(0))
	}
	return rec, nil
}

// save checks required fields and returns a SaveResult.
func save(ctx context.Context, call *patch.Call) (any, error) {
	rec, err := recordArg(call)
	if err != nil {
		return nil, err
	}
	for _, f := range rec.Model().Fields() {
		if !f.Required {
			continue
		}
		v, err := rec.Get(f.Name)
		if err != nil {
			return nil, err
		}
		if v.IsNull() || (v.Type() == cty.String && v.AsString() == "") {
			return nil, fmt.Errorf("%w: %s.%s is required", ErrValidation, rec.Model().Name(), f.Name)
		}
	}
	ctxlog.FromContext(ctx).Debug("Record saved.", "model", rec.Model().Name(), "id", rec.ID())
	return &SaveResult{Model: rec.Model().Name(), ID: rec.ID()}, nil
}

// discard drops the record's unsaved values and returns how many there were.
func discard(ctx context.Context, call *patch.Call) (any, error) {
	rec, err := recordArg(call)
	if err != nil {
		return nil, err
	}
	n := rec.Discard()
	ctxlog.FromContext(ctx).Debug("Changes discarded.", "model", rec.Model().Name(), "id", rec.ID(), "values", n)
	return n, nil
}

// render prints one row per record with the fields in declaration order.
// Only the first page_size records are rendered.
func render(ctx context.Context, call *patch.Call) (any, error) {
	records, ok := call.Arg(0).([]*model.Record)
	if !ok {
		return nil, fmt.Errorf("%s.render expects []*model.Record, got %T", ListRenderer, call.Arg(0))
	}
	size, err := intMember(call.Target, "page_size")
	if err != nil {
		return nil, err
	}
	if size > 0 && len(records) > size {
		records = records[:size]
	}
	rows := make([]string, 0, len(records))
	for _, rec := range records {
		var cols []string
		for _, f := range rec.Model().Fields() {
			v, err := rec.Get(f.Name)
			if err != nil {
				return nil, err
			}
			cols = append(cols, fmt.Sprintf("%s=%s", f.Name, display(v)))
		}
		rows = append(rows, strings.Join(cols, " "))
	}
	return rows, nil
}

// intMember reads a numeric value member. Manifest literals arrive as int64
// or float64, Go defaults as int.
func intMember(t *patch.Target, name string) (int, error) {
	v, err := t.Get(name)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%s.%s must be a number, got %T", t.Name(), name, v)
}

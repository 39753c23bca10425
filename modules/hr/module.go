// Package hr adds employees and departments, and teaches the web form
// controller to refuse employees without a name.
package hr

import (
	"context"
	"fmt"

	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/handlers"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/modules/web"
	"github.com/zclconf/go-cty/cty"
)

// Module implements env.Module for the hr addon.
type Module struct{}

// Name implements env.Module.
func (m *Module) Name() string { return "hr" }

// Depends implements env.Dependent.
func (m *Module) Depends() []string { return []string{"web"} }

// Register implements env.Module.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterMethod("hr.form_save", formSave)
	h.RegisterValue("hr.widget_department", web.Widget{Name: "department", Template: "<span class=\"o_department\"/>"})
}

// formSave rejects employees whose name is blank before any other save
// logic runs, then delegates.
func formSave(ctx context.Context, call *patch.Call) (any, error) {
	rec, ok := call.Arg(0).(*model.Record)
	if ok && rec.Model().Name() == "hr.employee" {
		name, err := rec.Get("name")
		if err != nil {
			return nil, err
		}
		if name.IsNull() || (name.Type() == cty.String && name.AsString() == "") {
			return nil, fmt.Errorf("%w: an employee needs a name", web.ErrValidation)
		}
		ctxlog.FromContext(ctx).Debug("Saving employee.", "id", rec.ID(), "layer", call.Layer())
	}
	return call.Super(ctx)
}

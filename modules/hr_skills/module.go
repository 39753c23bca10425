// Package hr_skills attaches skills to employees. Its manifest is YAML.
package hr_skills

import (
	"context"
	"fmt"

	"github.com/vk/addonkit/internal/handlers"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/modules/web"
)

// Module implements env.Module for the hr_skills addon.
type Module struct{}

// Name implements env.Module.
func (m *Module) Name() string { return "hr_skills" }

// Register implements env.Module.
func (m *Module) Register(h *handlers.Handlers) {
	h.RegisterMethod("hr_skills.form_save", formSave)
	h.RegisterValue("hr_skills.widget_many2one_avatar", web.Widget{Name: "many2one_avatar", Template: "<img class=\"o_avatar\"/>"})
	h.RegisterValue("hr_skills.widget_many2many_tags", web.Widget{Name: "many2many_tags", Template: "<div class=\"o_tags\"/>"})
}

// formSave delegates first and then notes how many skills the employee has.
func formSave(ctx context.Context, call *patch.Call) (any, error) {
	out, err := call.Super(ctx)
	if err != nil {
		return nil, err
	}
	res, ok := out.(*web.SaveResult)
	rec, isRec := call.Arg(0).(*model.Record)
	if !ok || !isRec || rec.Model().Name() != "hr.employee" {
		return out, nil
	}
	skills, err := rec.Get("skill_ids")
	if err != nil {
		return nil, err
	}
	if skills.IsNull() || !skills.IsKnown() {
		return res, nil
	}
	if n := skills.LengthInt(); n > 0 {
		res.Notes = append(res.Notes, pluralSkills(n))
	}
	return res, nil
}

func pluralSkills(n int) string {
	if n == 1 {
		return "1 skill"
	}
	return fmt.Sprintf("%d skills", n)
}

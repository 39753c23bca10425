package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/addonkit/internal/patch"
)

func noop(context.Context, *patch.Call) (any, error) { return nil, nil }

func TestHandlers_RegisterAndUse(t *testing.T) {
	h := New()
	h.RegisterMethod("hr.FormSave", noop)
	h.RegisterValue("hr.AvatarField", "avatar")

	assert.Equal(t, []string{"hr.AvatarField", "hr.FormSave"}, h.Names())
	assert.Equal(t, []string{"hr.AvatarField", "hr.FormSave"}, h.Unused())

	fn, ok := h.Method("hr.FormSave")
	require.True(t, ok)
	require.NotNil(t, fn)

	_, ok = h.Method("hr.AvatarField")
	assert.False(t, ok, "values are not methods")

	v, ok := h.Value("hr.AvatarField")
	require.True(t, ok)
	assert.Equal(t, "avatar", v)

	assert.Empty(t, h.Unused())
}

func TestHandlers_DuplicateNamePanics(t *testing.T) {
	h := New()
	h.RegisterMethod("x", noop)

	assert.Panics(t, func() { h.RegisterMethod("x", noop) })
	assert.Panics(t, func() { h.RegisterValue("x", 1) })
	assert.Panics(t, func() { h.RegisterMethod("nil", nil) })
}

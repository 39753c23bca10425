package env

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/internal/registry"
)

type countingObserver struct {
	applied, dispatched, declared, registered int
}

func (o *countingObserver) LayerApplied(string, string)    { o.applied++ }
func (o *countingObserver) LayerRemoved(string, string)    {}
func (o *countingObserver) Dispatched(string, string)      { o.dispatched++ }
func (o *countingObserver) FieldsDeclared(string, int)     { o.declared++ }
func (o *countingObserver) EntryRegistered(string, string) { o.registered++ }
func (o *countingObserver) EntryLookedUp(string, bool)     {}

func TestNew_WiresObserverAndPolicy(t *testing.T) {
	ctx := context.Background()
	obs := &countingObserver{}
	e := New(WithObserver(obs), WithDuplicatePolicy(registry.DuplicateReject))

	_, err := e.Patches.Define(ctx, "web.form", patch.Overrides{
		"save": patch.Method(func(context.Context, *patch.Call) (any, error) { return "saved", nil }),
	})
	require.NoError(t, err)
	_, err = e.Patches.Apply(ctx, "web.form", "hr", patch.Overrides{
		"save": patch.Method(func(ctx context.Context, c *patch.Call) (any, error) { return c.Super(ctx) }),
	})
	require.NoError(t, err)
	out, err := e.Patches.Call(ctx, "web.form", "save")
	require.NoError(t, err)
	assert.Equal(t, "saved", out)

	require.NoError(t, e.Models.Declare(ctx, "hr", "hr.employee", model.Field{Name: "name", Type: model.TypeChar}))
	require.NoError(t, e.Registry.Register(ctx, "views", "form", "x"))
	err = e.Registry.Register(ctx, "views", "form", "y")
	assert.True(t, errors.Is(err, registry.ErrDuplicateKey))

	assert.Equal(t, 1, obs.applied)
	assert.Equal(t, 1, obs.dispatched)
	assert.Equal(t, 1, obs.declared)
	assert.Equal(t, 2, obs.registered)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	e := New(WithDuplicatePolicy(registry.DuplicateReject))

	_, err := e.Patches.Define(ctx, "web.form", nil)
	require.NoError(t, err)
	require.NoError(t, e.Models.Declare(ctx, "hr", "hr.employee", model.Field{Name: "name", Type: model.TypeChar}))
	require.NoError(t, e.Registry.Register(ctx, "views", "form", "x"))
	e.Handlers.RegisterValue("web.widget", "char")
	before := e.Handlers

	e.Reset()

	assert.Empty(t, e.Patches.Targets())
	assert.Empty(t, e.Models.Models())
	assert.Empty(t, e.Registry.Categories())
	assert.Empty(t, e.Handlers.Names())
	assert.NotSame(t, before, e.Handlers)
	assert.Equal(t, registry.DuplicateReject, e.Registry.Policy(), "policy survives reset")
}

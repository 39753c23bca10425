package patch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tracer returns a method that records its tag and optionally delegates.
func tracer(trace *[]string, tag string, delegate bool) Func {
	return func(ctx context.Context, call *Call) (any, error) {
		*trace = append(*trace, tag)
		if delegate {
			return call.Super(ctx)
		}
		return tag, nil
	}
}

func newTracedTarget(trace *[]string) *Target {
	return NewTarget("web.FormController", Overrides{
		"save":  Method(tracer(trace, "original", false)),
		"limit": Value(40),
	})
}

func TestDispatch_NewestLayerRunsFirstAndDelegatesDown(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	_, err := target.Apply("L1", Overrides{"save": Method(tracer(&trace, "L1", true))})
	require.NoError(t, err)
	_, err = target.Apply("L2", Overrides{"save": Method(tracer(&trace, "L2", true))})
	require.NoError(t, err)

	result, err := target.Call(context.Background(), "save")
	require.NoError(t, err)

	assert.Equal(t, []string{"L2", "L1", "original"}, trace)
	assert.Equal(t, "original", result)
}

func TestDispatch_LayerCanSuppressOlderBehavior(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	_, err := target.Apply("L1", Overrides{"save": Method(tracer(&trace, "L1", true))})
	require.NoError(t, err)
	_, err = target.Apply("L2", Overrides{"save": Method(tracer(&trace, "L2", false))})
	require.NoError(t, err)

	result, err := target.Call(context.Background(), "save")
	require.NoError(t, err)

	assert.Equal(t, []string{"L2"}, trace)
	assert.Equal(t, "L2", result)
}

func TestUnpatch_RestoresBehaviorOfEarlierLayers(t *testing.T) {
	ctx := context.Background()
	var onlyL1, both []string

	reference := newTracedTarget(&onlyL1)
	_, err := reference.Apply("L1", Overrides{"save": Method(tracer(&onlyL1, "L1", true))})
	require.NoError(t, err)
	_, err = reference.Call(ctx, "save")
	require.NoError(t, err)

	target := newTracedTarget(&both)
	_, err = target.Apply("L1", Overrides{"save": Method(tracer(&both, "L1", true))})
	require.NoError(t, err)
	l2, err := target.Apply("L2", Overrides{"save": Method(tracer(&both, "L2", true))})
	require.NoError(t, err)

	require.NoError(t, l2.Remove())
	_, err = target.Call(ctx, "save")
	require.NoError(t, err)

	assert.Equal(t, onlyL1, both)
	assert.Equal(t, []string{"L1"}, target.Layers())
}

func TestUnpatch_IsLIFO(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	_, err := target.Apply("L1", Overrides{"save": Method(tracer(&trace, "L1", true))})
	require.NoError(t, err)
	_, err = target.Apply("L2", Overrides{"limit": Value(80)})
	require.NoError(t, err)

	err = target.Unpatch("L1")
	require.ErrorIs(t, err, ErrNotTopLayer)

	err = target.Unpatch("nope")
	require.ErrorIs(t, err, ErrUnknownLayer)

	require.NoError(t, target.Unpatch("L2"))
	require.NoError(t, target.Unpatch("L1"))
	assert.Empty(t, target.Layers())

	err = target.Unpatch("L1")
	require.ErrorIs(t, err, ErrUnknownLayer)
}

func TestSuper_WithoutPreviousImplementation(t *testing.T) {
	target := NewTarget("web.ListRenderer", nil)

	_, err := target.Apply("hr", Overrides{
		"openRecord": Method(func(ctx context.Context, call *Call) (any, error) {
			return call.Super(ctx)
		}),
	})
	require.NoError(t, err, "adding a brand new method is allowed")

	_, err = target.Call(context.Background(), "openRecord")
	require.ErrorIs(t, err, ErrMissingDelegate)
	assert.Contains(t, err.Error(), `layer "hr"`)
}

func TestSuperWith_PassesNewArguments(t *testing.T) {
	target := NewTarget("web.FormController", Overrides{
		"save": Method(func(ctx context.Context, call *Call) (any, error) {
			return fmt.Sprintf("saved %v", call.Arg(0)), nil
		}),
	})
	_, err := target.Apply("upper", Overrides{
		"save": Method(func(ctx context.Context, call *Call) (any, error) {
			name, _ := call.Arg(0).(string)
			return call.SuperWith(ctx, strings.ToUpper(name))
		}),
	})
	require.NoError(t, err)

	result, err := target.Call(context.Background(), "save", "alice")
	require.NoError(t, err)
	assert.Equal(t, "saved ALICE", result)
}

func TestCall_LayerName(t *testing.T) {
	var seen []string
	target := NewTarget("t", Overrides{
		"m": Method(func(ctx context.Context, call *Call) (any, error) {
			seen = append(seen, call.Layer())
			return nil, nil
		}),
	})
	_, err := target.Apply("top", Overrides{
		"m": Method(func(ctx context.Context, call *Call) (any, error) {
			seen = append(seen, call.Layer())
			return call.Super(ctx)
		}),
	})
	require.NoError(t, err)

	_, err = target.Call(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"top", ""}, seen)
}

func TestApply_ValueOverrides(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	_, err := target.Apply("bigger", Overrides{"limit": Value(80)})
	require.NoError(t, err)

	v, err := target.Get("limit")
	require.NoError(t, err)
	assert.Equal(t, 80, v)

	require.NoError(t, target.Unpatch("bigger"))
	v, err = target.Get("limit")
	require.NoError(t, err)
	assert.Equal(t, 40, v)
}

func TestApply_Errors(t *testing.T) {
	noop := Method(func(context.Context, *Call) (any, error) { return nil, nil })

	testCases := []struct {
		name      string
		overrides Overrides
		layer     string
		expectErr error
	}{
		{
			name:      "value for missing member",
			overrides: Overrides{"pageSize": Value(10)},
			layer:     "x",
			expectErr: ErrUnknownMember,
		},
		{
			name:      "value replacing method",
			overrides: Overrides{"save": Value(true)},
			layer:     "x",
			expectErr: ErrMemberKind,
		},
		{
			name:      "method replacing value",
			overrides: Overrides{"limit": noop},
			layer:     "x",
			expectErr: ErrMemberKind,
		},
		{
			name:      "duplicate layer name",
			overrides: Overrides{"save": noop},
			layer:     "existing",
			expectErr: ErrDuplicateLayer,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var trace []string
			target := newTracedTarget(&trace)
			_, err := target.Apply("existing", Overrides{"save": noop})
			require.NoError(t, err)

			_, err = target.Apply(tc.layer, tc.overrides)
			require.ErrorIs(t, err, tc.expectErr)
			assert.Equal(t, []string{"existing"}, target.Layers(), "a failed apply must not leave a layer behind")
		})
	}
}

func TestApply_RejectsEmptyLayerNameAndNilMethod(t *testing.T) {
	target := NewTarget("t", nil)

	_, err := target.Apply("", Overrides{})
	require.Error(t, err)

	_, err = target.Apply("x", Overrides{"m": Method(nil)})
	require.Error(t, err)
}

func TestApply_KeepsTargetIdentity(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	layer, err := target.Apply("L1", Overrides{"limit": Value(1)})
	require.NoError(t, err)

	assert.Same(t, target, layer.Target())
	assert.NotEmpty(t, layer.ID())
	assert.Equal(t, []string{"limit"}, layer.Members())
}

func TestResolve_SnapshotsTheChain(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	bound, err := target.Resolve("save")
	require.NoError(t, err)

	_, err = target.Apply("later", Overrides{"save": Method(tracer(&trace, "later", true))})
	require.NoError(t, err)

	_, err = bound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"original"}, trace)

	trace = nil
	_, err = target.Call(context.Background(), "save")
	require.NoError(t, err)
	assert.Equal(t, []string{"later", "original"}, trace)
}

func TestCall_UnknownOrValueMember(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	_, err := target.Call(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUnknownMember)

	_, err = target.Call(context.Background(), "limit")
	require.ErrorIs(t, err, ErrMemberKind)

	_, err = target.Get("save")
	require.ErrorIs(t, err, ErrMemberKind)

	_, err = target.Get("missing")
	require.ErrorIs(t, err, ErrUnknownMember)
}

func TestMembers_IncludesLayerAdditions(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)
	_, err := target.Apply("hr", Overrides{"archive": Method(tracer(&trace, "archive", false))})
	require.NoError(t, err)

	assert.Equal(t, []string{"archive", "limit", "save"}, target.Members())
	assert.True(t, target.Has("archive"))
	assert.False(t, target.Has("delete"))
}

func TestCompose_LastDecoratorRunsFirst(t *testing.T) {
	var trace []string
	bound := Compose("pipeline",
		tracer(&trace, "base", false),
		tracer(&trace, "first", true),
		tracer(&trace, "second", true),
	)

	result, err := bound(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "base", result)
	assert.Equal(t, []string{"second", "first", "base"}, trace)
}

func TestLayerRemove_StaleHandle(t *testing.T) {
	var trace []string
	target := newTracedTarget(&trace)

	old, err := target.Apply("hr", Overrides{"save": Method(tracer(&trace, "old", true))})
	require.NoError(t, err)
	require.NoError(t, old.Remove())

	fresh, err := target.Apply("hr", Overrides{"save": Method(tracer(&trace, "fresh", true))})
	require.NoError(t, err)

	err = old.Remove()
	require.ErrorIs(t, err, ErrUnknownLayer)
	assert.Equal(t, []string{"hr"}, target.Layers(), "the newer layer with the same name stays")

	_, err = target.Call(context.Background(), "save")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh", "original"}, trace)

	top, err := target.Apply("hr_skills", Overrides{"limit": Value(80)})
	require.NoError(t, err)
	require.ErrorIs(t, fresh.Remove(), ErrNotTopLayer)
	require.NoError(t, top.Remove())
	require.NoError(t, fresh.Remove())
	assert.Empty(t, target.Layers())
}

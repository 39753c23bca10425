package registry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/addonkit/internal/ctxlog"
)

type recordingObserver struct {
	outcomes []string
	hits     int
	misses   int
}

func (o *recordingObserver) EntryRegistered(_ string, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) EntryLookedUp(_ string, hit bool) {
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func loggingContext() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func TestRegisterThenLookup(t *testing.T) {
	ctx := context.Background()
	r := New()

	require.NoError(t, r.Register(ctx, "fields", "char", "CharField"))

	v, err := r.Lookup("fields", "char")
	require.NoError(t, err)
	assert.Equal(t, "CharField", v)
	assert.True(t, r.Contains("fields", "char"))
}

func TestLookup_Missing(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(context.Background(), "fields", "char", "CharField"))

	_, err := r.Lookup("fields", "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = r.Lookup("views", "form")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, r.Contains("views", "form"))
}

func TestRegister_DuplicatePolicies(t *testing.T) {
	testCases := []struct {
		name        string
		policy      DuplicatePolicy
		force       bool
		expectErr   bool
		expectValue string
		expectWarn  bool
		outcome     string
	}{
		{name: "warn overwrites and logs", policy: DuplicateWarn, expectValue: "second", expectWarn: true, outcome: OutcomeOverwritten},
		{name: "allow overwrites silently", policy: DuplicateOverwrite, expectValue: "second", outcome: OutcomeOverwritten},
		{name: "reject refuses", policy: DuplicateReject, expectErr: true, expectValue: "first", outcome: OutcomeRejected},
		{name: "reject accepts forced", policy: DuplicateReject, force: true, expectValue: "second", outcome: OutcomeOverwritten},
		{name: "forced overwrite does not warn", policy: DuplicateWarn, force: true, expectValue: "second", outcome: OutcomeOverwritten},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, logs := loggingContext()
			obs := &recordingObserver{}
			r := New(WithDuplicatePolicy(tc.policy), WithObserver(obs))

			require.NoError(t, r.Register(ctx, "fields", "avatar", "first"))

			var opts []AddOption
			if tc.force {
				opts = append(opts, Force())
			}
			err := r.Register(ctx, "fields", "avatar", "second", opts...)
			if tc.expectErr {
				require.ErrorIs(t, err, ErrDuplicateKey)
			} else {
				require.NoError(t, err)
			}

			v, err := r.Lookup("fields", "avatar")
			require.NoError(t, err)
			assert.Equal(t, tc.expectValue, v)
			assert.Equal(t, tc.expectWarn, bytes.Contains(logs.Bytes(), []byte("level=WARN")))
			assert.Equal(t, []string{OutcomeAdded, tc.outcome}, obs.outcomes)
		})
	}
}

func TestEntries_OrderedBySequenceThenInsertion(t *testing.T) {
	ctx := context.Background()
	r := New(WithDuplicatePolicy(DuplicateOverwrite))

	require.NoError(t, r.Register(ctx, "systray", "clock", 1, Sequence(20)))
	require.NoError(t, r.Register(ctx, "systray", "user", 2, Sequence(10)))
	require.NoError(t, r.Register(ctx, "systray", "chat", 3))
	require.NoError(t, r.Register(ctx, "systray", "bell", 4, Sequence(10)))
	// Overwriting keeps the previous sequence unless a new one is given.
	require.NoError(t, r.Register(ctx, "systray", "clock", 5))

	var keys []string
	for _, e := range r.Entries("systray") {
		keys = append(keys, e.Key)
	}
	if diff := cmp.Diff([]string{"chat", "user", "bell", "clock"}, keys); diff != "" {
		t.Errorf("entries order mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, r.Entries("missing"))
}

func TestLookupAs(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(context.Background(), "limits", "page", 80))

	n, err := LookupAs[int](r, "limits", "page")
	require.NoError(t, err)
	assert.Equal(t, 80, n)

	_, err = LookupAs[string](r, "limits", "page")
	require.Error(t, err)

	_, err = LookupAs[int](r, "limits", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAndReset(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Register(ctx, "fields", "char", 1))
	require.NoError(t, r.Register(ctx, "views", "form", 2))
	assert.Equal(t, []string{"fields", "views"}, r.Categories())

	require.NoError(t, r.Remove("fields", "char"))
	require.ErrorIs(t, r.Remove("fields", "char"), ErrNotFound)
	require.ErrorIs(t, r.Remove("nope", "char"), ErrNotFound)

	r.Reset()
	assert.Empty(t, r.Categories())
}

func TestRegister_RejectsEmptyNames(t *testing.T) {
	r := New()
	require.Error(t, r.Register(context.Background(), "", "k", 1))
	require.Error(t, r.Register(context.Background(), "c", "", 1))
}

func TestParseDuplicatePolicy(t *testing.T) {
	for _, s := range []string{"warn", "allow", "reject"} {
		p, err := ParseDuplicatePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, s, p.String())
	}
	_, err := ParseDuplicatePolicy("explode")
	require.Error(t, err)
}

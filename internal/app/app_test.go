package app_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/addonkit/internal/app"
	"github.com/vk/addonkit/internal/env"
	"github.com/vk/addonkit/internal/handlers"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/internal/registry"
	"github.com/vk/addonkit/internal/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// greeter defines a target and a handler that delegates to it.
type greeter struct{}

func (greeter) Name() string { return "greeter" }

func (greeter) Register(h *handlers.Handlers) {
	h.RegisterMethod("greeter.shout", func(ctx context.Context, c *patch.Call) (any, error) {
		out, err := c.Super(ctx)
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(out.(string)) + "!", nil
	})
	h.RegisterValue("greeter.card", "card-widget")
	h.RegisterValue("greeter.spare", 1)
}

func (greeter) Bootstrap(ctx context.Context, e *env.Env) error {
	_, err := e.Patches.Define(ctx, "greeter.Service", patch.Overrides{
		"greet": patch.Method(func(ctx context.Context, c *patch.Call) (any, error) {
			return "hello " + c.Arg(0).(string), nil
		}),
		"limit": patch.Value(1),
	})
	return err
}

const greeterManifest = `
addon "greeter" {
  patch "greeter.Service" {
    method "greet" {
      handler = "greeter.shout"
    }
    value "limit" {
      literal = 5
    }
  }
  registry "widgets" "card" {
    handler = "greeter.card"
  }
}
`

func TestBoot_GoModuleAndManifest(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{
		"greeter/manifest.hcl": greeterManifest,
	}, testutil.Options{Modules: []env.Module{greeter{}}})
	testutil.AssertBooted(t, result)

	e := result.App.Env()
	out, err := e.Patches.Call(context.Background(), "greeter.Service", "greet", "bob")
	require.NoError(t, err)
	assert.Equal(t, "HELLO BOB!", out)

	target, err := e.Patches.Target("greeter.Service")
	require.NoError(t, err)
	limit, err := target.Get("limit")
	require.NoError(t, err)
	assert.Equal(t, int64(5), limit)
	assert.Equal(t, []string{"greeter"}, target.Layers(), "layer defaults to the addon name")

	w, err := registry.LookupAs[string](e.Registry, "widgets", "card")
	require.NoError(t, err)
	assert.Equal(t, "card-widget", w)

	assert.Equal(t, []string{"greeter"}, result.App.Order())
	testutil.AssertLogged(t, result, "handler=greeter.spare")
}

func TestBoot_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		policy  string
		wantErr string
		wantIs  error
	}{
		{
			name:    "unknown dependency",
			files:   map[string]string{"a.hcl": `addon "a" { depends = ["ghost"] }`},
			wantErr: `addon "a" depends on unknown addon "ghost"`,
		},
		{
			name: "dependency cycle",
			files: map[string]string{
				"a.hcl": `addon "a" { depends = ["b"] }`,
				"b.hcl": `addon "b" { depends = ["a"] }`,
			},
			wantErr: "dependency cycle: a -> b -> a",
		},
		{
			name:    "unknown method handler",
			files:   map[string]string{"greeter.hcl": strings.Replace(greeterManifest, "greeter.shout", "greeter.whisper", 1)},
			wantErr: `unknown method handler "greeter.whisper"`,
		},
		{
			name:    "unknown registry handler",
			files:   map[string]string{"greeter.hcl": strings.Replace(greeterManifest, `"greeter.card"`, `"greeter.table"`, 1)},
			wantErr: `unknown handler "greeter.table"`,
		},
		{
			name: "unknown patch target",
			files: map[string]string{"x.hcl": `
addon "x" {
  patch "nowhere" {
    method "greet" {
      handler = "greeter.shout"
    }
  }
}`},
			wantIs: patch.ErrUnknownTarget,
		},
		{
			name: "unresolved relation",
			files: map[string]string{"x.hcl": `
addon "x" {
  model "x.thing" {
    field "owner_id" {
      type = many2one("x.owner")
    }
  }
}`},
			wantErr: "model validation failed",
		},
		{
			name: "duplicate key under reject policy",
			files: map[string]string{
				"greeter.hcl": greeterManifest,
				"extra.yaml":  "addon: extra\ndepends: [greeter]\nregistry:\n  - category: widgets\n    key: card\n    handler: greeter.spare\n",
			},
			policy: "reject",
			wantIs: registry.ErrDuplicateKey,
		},
		{
			name: "addon in both formats",
			files: map[string]string{
				"greeter.hcl":  greeterManifest,
				"greeter.yaml": "addon: greeter\n",
			},
			wantErr: `addon "greeter" defined twice`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := testutil.RunIntegrationTest(t, tc.files, testutil.Options{
				Modules:         []env.Module{greeter{}},
				DuplicatePolicy: tc.policy,
			})
			require.Error(t, result.Err)
			if tc.wantErr != "" {
				assert.Contains(t, result.Err.Error(), tc.wantErr)
			}
			if tc.wantIs != nil {
				assert.True(t, errors.Is(result.Err, tc.wantIs), "got %v", result.Err)
			}
			assert.Nil(t, result.App.Order(), "a failed boot leaves no load order")
		})
	}
}

func TestBoot_IsRepeatable(t *testing.T) {
	result := testutil.RunIntegrationTest(t, map[string]string{
		"greeter/manifest.hcl": greeterManifest,
	}, testutil.Options{Modules: []env.Module{greeter{}}})
	testutil.AssertBooted(t, result)

	require.NoError(t, result.App.Boot(context.Background()))

	target, err := result.App.Env().Patches.Target("greeter.Service")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeter"}, target.Layers(), "reboot starts from an empty environment")
}

func TestBoot_PanicOnDuplicateHandler(t *testing.T) {
	result := testutil.RunIntegrationTest(t, nil, testutil.Options{
		Modules: []env.Module{greeter{}, renamed{greeter{}}},
	})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Contains(t, result.Err.Error(), "already registered")
}

type renamed struct{ greeter }

func (renamed) Name() string { return "greeter_copy" }

func TestHandler_HealthAndMetrics(t *testing.T) {
	cfg, err := app.NewConfig(app.Config{ModulesPath: t.TempDir()})
	require.NoError(t, err)
	a := app.NewApp(&testutil.SafeBuffer{}, cfg, app.WithModules(greeter{}))

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, a.Boot(context.Background()))

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "addonkit_boot_addons_loaded 1")
}

func TestServe_DisabledPortReturnsImmediately(t *testing.T) {
	cfg, err := app.NewConfig(app.Config{ModulesPath: t.TempDir()})
	require.NoError(t, err)
	a := app.NewApp(&testutil.SafeBuffer{}, cfg)
	assert.NoError(t, a.Serve(context.Background()))
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg, err := app.NewConfig(app.Config{ModulesPath: t.TempDir(), HealthcheckPort: port})
	require.NoError(t, err)
	a := app.NewApp(&testutil.SafeBuffer{}, cfg, app.WithModules(greeter{}))
	require.NoError(t, a.Boot(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, false) }()

	client := &http.Client{Timeout: time.Second}
	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/health"
	require.Eventually(t, func() bool {
		resp, err := client.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

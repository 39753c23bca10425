// Package testutil provides a harness that writes addon manifests into a
// temporary modules directory and boots an App against them.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/addonkit/internal/app"
	"github.com/vk/addonkit/internal/env"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// Options tune the harness.
type Options struct {
	// Modules replaces the compiled-in Go modules when non-nil.
	Modules []env.Module
	// DuplicatePolicy is passed through to the app config.
	DuplicatePolicy string
}

// RunIntegrationTest boots an App over files using a background context.
// files maps paths relative to the modules directory to their content.
func RunIntegrationTest(t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts Options) *HarnessResult {
	t.Helper()

	modulesDir := filepath.Join(t.TempDir(), "modules")
	require.NoError(t, os.Mkdir(modulesDir, 0755))

	for name, content := range files {
		filePath := filepath.Join(modulesDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	appConfig, err := app.NewConfig(app.Config{
		ModulesPath:     modulesDir,
		LogLevel:        "debug",
		LogFormat:       "text",
		DuplicatePolicy: opts.DuplicatePolicy,
	})
	require.NoError(t, err)

	var appOpts []app.Option
	if opts.Modules != nil {
		appOpts = append(appOpts, app.WithModules(opts.Modules...))
	}

	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(logBuffer, appConfig, appOpts...)

	var bootErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				bootErr = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		bootErr = testApp.Boot(ctx)
	}()

	if os.Getenv("ADDONKIT_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       bootErr,
		App:       testApp,
	}
}

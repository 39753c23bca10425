package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertBooted fails the test unless the harness run booted cleanly.
func AssertBooted(t *testing.T, result *HarnessResult) {
	t.Helper()
	require.NoError(t, result.Err, "boot failed; log output:\n%s", result.LogOutput)
}

// AssertLogged checks that the log output contains substr.
func AssertLogged(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, substr),
		"expected %q in log output", substr,
	)
}

package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"hr/manifest.hcl", "hr_skills/manifest.yaml", "web/README.md", "top.yml"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	files, err := FindFiles([]string{root, filepath.Join(root, "hr/manifest.hcl"), filepath.Join(root, "missing")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "hr/manifest.hcl")}, files)

	files, err = FindFiles([]string{root}, ".yaml", ".yml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "hr_skills/manifest.yaml"), filepath.Join(root, "top.yml")}, files)

	assert.Panics(t, func() { _, _ = FindFiles([]string{root}) })
}

func TestFindFiles_Glob(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"addons/hr/manifest.hcl", "addons/hr/extra/views.hcl", "addons/web/manifest.hcl", "other/manifest.hcl"} {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}

	files, err := FindFiles([]string{filepath.Join(root, "addons", "**", "manifest.hcl")}, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "addons/hr/manifest.hcl"),
		filepath.Join(root, "addons/web/manifest.hcl"),
	}, files)

	files, err = FindFiles([]string{filepath.Join(root, "addons", "*")}, ".hcl")
	require.NoError(t, err)
	assert.Len(t, files, 3, "matched directories are walked")
}

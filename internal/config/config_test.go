package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDiscoverWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Root())
	assert.True(t, cfg.Resolver.Validate)
	assert.Equal(t, FormatPretty, cfg.Output.Format)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, FileName), `
[resolver]
requires_ancestor = true
trusted_paths = ["rbi", "/opt/shared/"]

[output]
format = "json"
color = "off"

[cache]
enabled = true
dir = ".tyck-cache"
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Discover(nested)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root())
	assert.True(t, cfg.Resolver.RequiresAncestor)
	// keys absent from the file keep their defaults
	assert.True(t, cfg.Resolver.Validate)
	assert.Equal(t, 1000, cfg.Output.MaxDiagnostics)
	assert.Equal(t, FormatJSON, cfg.Output.Format)

	assert.Equal(t, []string{"rbi", "/opt/shared/"}, cfg.TrustedPrefixes())

	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".tyck-cache"), dir)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax":  "[output\n",
		"unknown": "[output]\nfromat = \"json\"\n",
		"format":  "[output]\nformat = \"xml\"\n",
		"color":   "[output]\ncolor = \"sometimes\"\n",
		"max":     "[output]\nmax_diagnostics = -1\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			writeFile(t, path, content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

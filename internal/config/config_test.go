package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithNoFileOrFlags(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.FixIntervalSec)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")
	cfg, err := Load([]string{"--config-file=" + path})
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.FixIntervalSec)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnssrx.yaml")
	yaml := `
source:
  kind: file
  path: /tmp/capture.bin
  format: 2xf32
fix_interval_sec: 5
prns: [1, 5, 12]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load([]string{"--config-file=" + path})
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Source.Kind)
	assert.Equal(t, "/tmp/capture.bin", cfg.Source.Path)
	assert.Equal(t, 5.0, cfg.FixIntervalSec)
	assert.Equal(t, []int{1, 5, 12}, cfg.PRNs)
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnssrx.yaml")
	yaml := `
source:
  kind: file
  path: /tmp/capture.bin
fix_interval_sec: 5
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load([]string{"--config-file=" + path, "--fix-interval-sec=3", "--source-path=/tmp/other.bin"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.FixIntervalSec)
	assert.Equal(t, "/tmp/other.bin", cfg.Source.Path)
	assert.Equal(t, "file", cfg.Source.Kind) // unset flag keeps file value
}

func TestExplicitZeroFixIntervalOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnssrx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fix_interval_sec: 5\n"), 0o644))

	cfg, err := Load([]string{"--config-file=" + path, "--fix-interval-sec=0"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.FixIntervalSec)
}

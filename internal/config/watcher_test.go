package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_InertWhenNoConfigFile(t *testing.T) {
	cfg := Load()
	cfg.ConfigFile = ""

	w, err := NewWatcher(&cfg, nil)

	require.NoError(t, err)
	w.Stop() // must not panic even though no fsnotify.Watcher was started
}

func TestNewWatcher_AppliesInitialOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph:\n  weight_vector: 0.5\n  weight_tags: 0.3\n  weight_classification: 0.2\n"), 0o644))

	cfg := Load()
	cfg.ConfigFile = path

	w, err := NewWatcher(&cfg, nil)
	require.NoError(t, err)
	defer w.Stop()

	assert.InDelta(t, 0.5, w.Config().Graph.WeightVector, 1e-9)
}

func TestWatcher_ReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph:\n  weight_vector: 0.6\n  weight_tags: 0.25\n  weight_classification: 0.15\n"), 0o644))

	cfg := Load()
	cfg.ConfigFile = path

	w, err := NewWatcher(&cfg, nil)
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan *Config, 1)
	w.OnChange(func(c *Config) { changed <- c })

	require.NoError(t, os.WriteFile(path, []byte("graph:\n  weight_vector: 0.4\n  weight_tags: 0.4\n  weight_classification: 0.2\n"), 0o644))

	select {
	case c := <-changed:
		assert.InDelta(t, 0.4, c.Graph.WeightVector, 1e-9)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}
}

func TestWatcher_RejectsOverlayWithBadWeightSum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graph:\n  weight_vector: 0.9\n  weight_tags: 0.9\n  weight_classification: 0.9\n"), 0o644))

	cfg := Load()
	cfg.ConfigFile = path

	w, err := NewWatcher(&cfg, nil)
	require.NoError(t, err)
	defer w.Stop()

	// initial overlay failed validation, so the default weights remain.
	assert.InDelta(t, 0.6, w.Config().Graph.WeightVector, 1e-9)
}

package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writePlugins(t *testing.T, files map[string]string, order ...string) *Manifest {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plugins"), 0o755))
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plugins", name), []byte(body), 0o644))
	}
	manifest := filepath.Join(dir, "plugins.toml")
	body := "folder = \"plugins\"\nplugins = ["
	for i, name := range order {
		if i > 0 {
			body += ", "
		}
		body += "\"" + name + "\""
	}
	body += "]\n"
	require.NoError(t, os.WriteFile(manifest, []byte(body), 0o644))

	m, err := LoadManifest(manifest)
	require.NoError(t, err)
	return m
}

func TestFrameListenersProduceOverlayLines(t *testing.T) {
	m := writePlugins(t, map[string]string{
		"fps.lua": `
renderer.register_frame_listener(function(f)
  return string.format("frame %d %.0fms", f.frame, f.dt_ms)
end)`,
		"silent.lua": `
renderer.log("api " .. renderer.api_version)
renderer.register_frame_listener(function(f) end)`,
		"nodes.lua": `
renderer.register_frame_listener(function(f)
  return "nodes " .. f.nodes
end)`,
	}, "fps.lua", "silent.lua", "nodes.lua")

	h, err := NewHost(m, zap.NewNop())
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, []string{"fps.lua", "silent.lua", "nodes.lua"}, h.Plugins())
	assert.Equal(t, 3, h.Listeners())

	lines := h.FrameEnded(FrameStats{Frame: 7, DT: 16 * time.Millisecond, Nodes: 3})
	assert.Equal(t, []string{"frame 7 16ms", "nodes 3"}, lines)
}

func TestFailingListenerIsSkipped(t *testing.T) {
	m := writePlugins(t, map[string]string{
		"bad.lua":  `renderer.register_frame_listener(function(f) error("boom") end)`,
		"good.lua": `renderer.register_frame_listener(function(f) return "ok" end)`,
	}, "bad.lua", "good.lua")

	h, err := NewHost(m, zap.NewNop())
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, []string{"ok"}, h.FrameEnded(FrameStats{}))
	assert.Equal(t, []string{"ok"}, h.FrameEnded(FrameStats{}))
}

func TestBrokenPluginFailsHost(t *testing.T) {
	m := writePlugins(t, map[string]string{"syntax.lua": `renderer.register_frame_listener(`}, "syntax.lua")
	_, err := NewHost(m, zap.NewNop())
	require.Error(t, err)

	m = writePlugins(t, nil, "missing.lua")
	_, err = NewHost(m, zap.NewNop())
	require.Error(t, err)
}

func TestNilManifestLoadsNothing(t *testing.T) {
	h, err := NewHost(nil, zap.NewNop())
	require.NoError(t, err)
	defer h.Close()
	assert.Nil(t, h.FrameEnded(FrameStats{}))
}

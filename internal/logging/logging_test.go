package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrive/thrive/internal/config"
	"go.uber.org/zap"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log, err := New(config.LoggingConfig{Level: "debug", Format: "console", File: path})
	require.NoError(t, err)

	log.Debug("scene manager created", zap.String("type", "DefaultSceneManager"))
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(raw)
	assert.True(t, strings.Contains(line, "scene manager created"), line)
	assert.True(t, strings.Contains(line, "DEBUG"), line)
}

func TestNewFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	log, err := New(config.LoggingConfig{Level: "chatty", Format: "json", File: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), `"msg":"shown"`)
}

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"demo-labeler/config"
)

func TestNewWritesToFallback(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New("labeler", config.LoggingConfig{Level: "info"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("frame labeled", "t", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "frame labeled")
	assert.Contains(t, buf.String(), "t=3")
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "labeler.log")
	logger, closer, err := New("labeler", config.LoggingConfig{Level: "debug", File: path}, nil)
	require.NoError(t, err)

	logger.Debug("tick", "cursor", 4)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tick")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("labeler", config.LoggingConfig{Level: "chatty"}, nil)
	assert.Error(t, err)
}

package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{
			Name:    "mepd-test",
			Version: "0.0.1",
			Logger:  zap.NewNop(),
		}

		server, err := NewServer(cfg, testRegistry(t))
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.mcp)
		assert.NotNil(t, server.coord)
		assert.NotNil(t, server.metrics)
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(nil, testRegistry(t))
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.logger)
	})

	t.Run("returns error when registry is nil", func(t *testing.T) {
		_, err := NewServer(DefaultConfig(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service registry is required")
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mepd", cfg.Name)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.NotNil(t, cfg.Logger)
}

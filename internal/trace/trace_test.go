package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionConfig(t *testing.T) {
	logger, err := New(Config{})
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Infow("smoke test")
}

func TestNewDebugConfig(t *testing.T) {
	logger, err := New(Config{Debug: true})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewWithLevelOverride(t *testing.T) {
	logger, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "not-a-level"})
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	logger := Noop()
	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Debugw("discarded") })
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_Environments(t *testing.T) {
	restore := Set(Logger)
	defer restore()

	require.NoError(t, Init("test"))
	assert.NotNil(t, Logger)

	require.NoError(t, Init("production"))
	assert.True(t, Logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, Logger.Core().Enabled(zap.DebugLevel))
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := Set(zap.New(core))
	defer restore()

	WithRequestID("req-1").Info("hello")
	Warn("careful", zap.String("event", "test_event"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "test_event", entries[1].ContextMap()["event"])
}

package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("nonsense"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("fatal"))
}

func TestInitialize(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	logFile := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, Initialize("debug", logFile))
	require.NotNil(t, Log)
	assert.True(t, Log.Core().Enabled(zapcore.DebugLevel))

	Log.Info("hello", WithUserID("u1"), WithExternalID(603))
	_ = Close()
	assert.FileExists(t, logFile)
}

func TestInitialize_CreatesLogDirectory(t *testing.T) {
	prev := Log
	defer func() { Log = prev }()

	logFile := filepath.Join(t.TempDir(), "logs", "nested", "server.log")
	require.NoError(t, Initialize("info", logFile))
	Log.Warn("nested")
	_ = Close()
	assert.FileExists(t, logFile)
}

func TestWithErr(t *testing.T) {
	base := []zap.Field{WithUserID("u1")}
	assert.Len(t, withErr(base, nil), 1)
	withError := withErr(base, errors.New("boom"))
	require.Len(t, withError, 2)
	assert.Equal(t, "error", withError[1].Key)
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "tmdb_id", WithExternalID(1).Key)
	assert.Equal(t, int64(404), WithUpstreamStatus(404).Integer)
	assert.Equal(t, "request_id", WithRequestID("abc").Key)
}

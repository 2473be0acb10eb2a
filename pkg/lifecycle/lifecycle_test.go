package lifecycle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Start(version string) error {
	return m.Called(version).Error(0)
}

func (m *mockLogger) Close() error {
	return m.Called().Error(0)
}

func (m *mockLogger) Warn(format string, args ...interface{}) {
	m.Called(format)
}

func (m *mockLogger) Info(format string, args ...interface{}) {
	m.Called(format)
}

func TestController_DoubleStartAndShutdown(t *testing.T) {
	logger := &mockLogger{}
	logger.On("Start", "1.0.0").Return(nil).Once()
	logger.On("Close").Return(nil).Once()
	logger.On("Info", mock.Anything)
	logger.On("Warn", "%s is already running").Once()

	c := NewController(NewControllerOptions{Name: "master", Version: "1.0.0", Logger: logger})
	assert.Equal(t, Stopped, c.State())

	require.NoError(t, c.Shutdown(), "shutdown while stopped is a no-op")
	require.NoError(t, c.Start())
	assert.True(t, c.Running())

	require.NoError(t, c.Start())
	assert.Equal(t, Running, c.State())

	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())
	assert.Equal(t, Stopped, c.State())

	logger.AssertExpectations(t)
}

func TestController_LoggerFailureKeepsStopped(t *testing.T) {
	logger := &mockLogger{}
	logger.On("Start", "").Return(errors.New("disk full"))

	c := NewController(NewControllerOptions{Logger: logger})
	err := c.Start()
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, Stopped, c.State())
	logger.AssertNotCalled(t, "Close")
}

func TestController_StartHookFailureClosesLogger(t *testing.T) {
	logger := &mockLogger{}
	logger.On("Start", "").Return(nil)
	logger.On("Close").Return(nil).Once()

	c := NewController(NewControllerOptions{
		Logger:  logger,
		OnStart: func() error { return errors.New("port in use") },
	})
	assert.Error(t, c.Start())
	assert.Equal(t, Stopped, c.State())
	logger.AssertExpectations(t)
}

func TestController_WithFileLogger(t *testing.T) {
	dir := t.TempDir()
	logger := log.New(log.NewLoggerOptions{
		ConsoleLevel: log.LogLevelInfo,
		FileLevel:    log.LogLevelInfo,
		Dir:          dir,
		Console:      zapcore.AddSync(&bytes.Buffer{}),
	})

	shutdowns := 0
	c := NewController(NewControllerOptions{
		Name:       "game",
		Version:    "test",
		Logger:     logger,
		OnShutdown: func() error { shutdowns++; return nil },
	})

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())
	require.NoError(t, c.Shutdown())
	require.NoError(t, c.Shutdown())
	assert.Equal(t, 1, shutdowns)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	b, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(b), "game is already running")
	assert.Contains(t, string(b), "session ended")
}

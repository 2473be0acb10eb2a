package config

import (
	"testing"
	"time"

	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrom_Defaults(t *testing.T) {
	cfg, err := ParseFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, log.LogLevelInfo, cfg.DebugModeConsole)
	assert.Equal(t, log.LogLevelDebug, cfg.DebugModeFile)
	assert.Equal(t, 2, cfg.RoomSize)
	assert.Equal(t, 30, cfg.CalculationsPerSecond)
	assert.Equal(t, time.Second, cfg.TimeBetweenRTTs)
	assert.Equal(t, 10*time.Second, cfg.DisconnectTimeout)
}

func TestParseFrom(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "overrides",
			env: map[string]string{
				"ROOMSYNC_DEBUG_MODE_CONSOLE":      "warn",
				"ROOMSYNC_DEBUG_MODE_FILE":         "trace",
				"ROOMSYNC_MAX_CONNECTIONS":         "8",
				"ROOMSYNC_ROOM_SIZE":               "4",
				"ROOMSYNC_DISCONNECT_TIMEOUT":      "3s",
				"ROOMSYNC_CALCULATIONS_PER_SECOND": "60",
				"ROOMSYNC_GAME_SERVER_ID":          "3",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, log.LogLevelWarn, cfg.DebugModeConsole)
				assert.Equal(t, log.LogLevelTrace, cfg.DebugModeFile)
				assert.Equal(t, 8, cfg.MaxConnections)
				assert.Equal(t, 4, cfg.RoomSize)
				assert.Equal(t, 3*time.Second, cfg.DisconnectTimeout)
				assert.Equal(t, 60, cfg.CalculationsPerSecond)
				assert.Equal(t, 3, cfg.GameServerID)
			},
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"ROOMSYNC_DEBUG_MODE_CONSOLE": "loud"},
			wantErr: true,
		},
		{
			name:    "bad duration",
			env:     map[string]string{"ROOMSYNC_TIME_BETWEEN_RTTS": "soon"},
			wantErr: true,
		},
		{
			name:    "empty room",
			env:     map[string]string{"ROOMSYNC_ROOM_SIZE": "0"},
			wantErr: true,
		},
		{
			name: "unprefixed variables are ignored",
			env:  map[string]string{"ROOM_SIZE": "0"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.RoomSize)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFrom(tt.env)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

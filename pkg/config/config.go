package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cbodonnell/roomsync/pkg/log"
)

// EnvPrefix prefixes every environment variable read by Parse.
const EnvPrefix = "ROOMSYNC_"

// Config is the server configuration read from the environment.
type Config struct {
	// DebugModeConsole is the console log level.
	DebugModeConsole log.LogLevel `env:"DEBUG_MODE_CONSOLE" envDefault:"info"`
	// DebugModeFile is the log file level.
	DebugModeFile log.LogLevel `env:"DEBUG_MODE_FILE" envDefault:"debug"`
	LogDir        string       `env:"LOG_DIR" envDefault:"logs"`

	// MaxConnections is a capacity hint, connections beyond it are not refused.
	MaxConnections int `env:"MAX_CONNECTIONS" envDefault:"64"`
	MaxGames       int `env:"MAX_GAMES" envDefault:"16"`
	RoomSize       int `env:"ROOM_SIZE" envDefault:"2"`

	// TimeBetweenRTTs and DisconnectTimeout drive the transport's
	// disconnection detection.
	TimeBetweenRTTs   time.Duration `env:"TIME_BETWEEN_RTTS" envDefault:"1s"`
	DisconnectTimeout time.Duration `env:"DISCONNECT_TIMEOUT" envDefault:"10s"`

	CalculationsPerSecond int `env:"CALCULATIONS_PER_SECOND" envDefault:"30"`
	GameServerID          int `env:"GAME_SERVER_ID" envDefault:"0"`
	RaceTicks             int `env:"RACE_TICKS" envDefault:"1800"`

	APIPort int `env:"API_PORT" envDefault:"9090"`
}

// Parse reads the configuration from the process environment.
func Parse() (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// ParseFrom reads the configuration from the given variables instead of
// the process environment. Keys include the prefix.
func ParseFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.RoomSize < 1 {
		return fmt.Errorf("room size must be at least 1, got %d", c.RoomSize)
	}
	if c.CalculationsPerSecond < 1 {
		return fmt.Errorf("calculations per second must be at least 1, got %d", c.CalculationsPerSecond)
	}
	if c.MaxGames < 0 || c.MaxConnections < 0 {
		return fmt.Errorf("capacity hints cannot be negative")
	}
	if c.GameServerID < 0 {
		return fmt.Errorf("game server id cannot be negative, got %d", c.GameServerID)
	}
	return nil
}

package log

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

func (level LogLevel) String() string {
	switch level {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a log level string into a LogLevel.
// Valid log levels are: error, warn, info, debug, trace.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return LogLevelError, fmt.Errorf("unknown log level: %s", level)
	}
}

// UnmarshalText lets a LogLevel be read from environment configuration.
func (level *LogLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseLogLevel(string(text))
	if err != nil {
		return err
	}
	*level = parsed
	return nil
}

func (level LogLevel) MarshalText() ([]byte, error) {
	return []byte(level.String()), nil
}

// toZap maps error..trace onto zap's error..debug-1 range.
func toZap(level LogLevel) zapcore.Level {
	return zapcore.Level(int(LogLevelInfo) - int(level))
}

func fromZap(level zapcore.Level) LogLevel {
	return LogLevel(int(LogLevelInfo) - int(level))
}

const colorSymbol = 0x1B

var levelColors = map[LogLevel]int{
	LogLevelError: 31,
	LogLevelWarn:  33,
	LogLevelInfo:  32,
	LogLevelDebug: 36,
	LogLevelTrace: 37,
}

func levelLabel(level zapcore.Level) string {
	return "[" + strings.ToUpper(fromZap(level).String()) + "]"
}

func plainLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelLabel(level))
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	color, ok := levelColors[fromZap(level)]
	if !ok {
		color = 37
	}
	enc.AppendString(fmt.Sprintf("%c[%dm%s%c[0m", colorSymbol, color, levelLabel(level), colorSymbol))
}

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripANSI(p []byte) []byte {
	return ansiPattern.ReplaceAll(p, nil)
}

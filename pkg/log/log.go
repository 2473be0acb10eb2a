package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *Logger
	defaultLock   sync.RWMutex
	once          sync.Once
)

func init() {
	once.Do(func() {
		defaultLogger = New(NewLoggerOptions{
			ConsoleLevel: LogLevelDebug,
			FileLevel:    LogLevelDebug,
		})
	})
}

// SetDefaultLogger replaces the logger used by the package-level functions.
func SetDefaultLogger(l *Logger) {
	if l == nil {
		return
	}
	defaultLock.Lock()
	defer defaultLock.Unlock()
	defaultLogger = l
}

// Default returns the logger used by the package-level functions.
func Default() *Logger {
	defaultLock.RLock()
	defer defaultLock.RUnlock()
	return defaultLogger
}

// SetLevel sets the console level of the default logger.
func SetLevel(level LogLevel) {
	l := Default()
	l.SetConsoleLevel(level)
	l.Info("Log level set to %s", level)
}

const (
	// FileTimeLayout names one log file per server start.
	FileTimeLayout = "2006-01-02_15-04-05"

	consoleTimeLayout = "2006-01-02 15:04:05.000"

	// maxFileSizeMB is large enough that a session never rotates out of
	// its file.
	maxFileSizeMB = 1 << 20
)

type NewLoggerOptions struct {
	// ConsoleLevel is the least severe level written to the console.
	ConsoleLevel LogLevel
	// FileLevel is the least severe level written to the log file.
	FileLevel LogLevel
	// Dir is where log files are created. Empty disables the file sink.
	Dir string
	// Dispatcher and Buffer route console lines onto the designated
	// goroutine. Both must be set for the live buffer to be used.
	Dispatcher *dispatch.Dispatcher
	Buffer     *LiveBuffer
	// Console receives console lines. Defaults to stdout.
	Console zapcore.WriteSyncer
}

// Logger writes leveled records to a console sink and, once started, to a
// per-session file sink. Each sink filters on its own level.
type Logger struct {
	consoleLevel zap.AtomicLevel
	fileLevel    zap.AtomicLevel

	console     *consoleSink
	consoleCore zapcore.Core
	file        *fileSink
	fileCore    zapcore.Core
	zap         *zap.Logger

	dir      string
	lock     sync.Mutex
	started  bool
	filename string
}

func New(opts NewLoggerOptions) *Logger {
	out := opts.Console
	if out == nil {
		out = zapcore.Lock(os.Stdout)
	}

	l := &Logger{
		consoleLevel: zap.NewAtomicLevelAt(toZap(opts.ConsoleLevel)),
		fileLevel:    zap.NewAtomicLevelAt(toZap(opts.FileLevel)),
		console: &consoleSink{
			out:        out,
			dispatcher: opts.Dispatcher,
			buffer:     opts.Buffer,
		},
		file: &fileSink{},
		dir:  opts.Dir,
	}

	l.consoleCore = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(colorLevelEncoder)), l.console, l.consoleLevel)
	l.fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig(plainLevelEncoder)), l.file, l.fileLevel)
	l.zap = zap.New(zapcore.NewTee(l.consoleCore, l.fileCore))
	return l
}

func encoderConfig(levels zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      levels,
		EncodeTime:       zapcore.TimeEncoderOfLayout(consoleTimeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

func (l *Logger) SetConsoleLevel(level LogLevel) {
	l.consoleLevel.SetLevel(toZap(level))
}

func (l *Logger) SetFileLevel(level LogLevel) {
	l.fileLevel.SetLevel(toZap(level))
}

// Filename returns the file of the current session, empty when not started
// or when the file sink is disabled.
func (l *Logger) Filename() string {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.filename
}

// Start opens the session log file and writes the start marker to both
// sinks. Calling Start on a started logger does nothing.
func (l *Logger) Start(version string) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.started {
		return nil
	}

	if l.dir != "" {
		if err := os.MkdirAll(l.dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory %s: %w", l.dir, err)
		}
		filename := filepath.Join(l.dir, time.Now().Format(FileTimeLayout)+".log")
		if err := l.file.open(filename); err != nil {
			return fmt.Errorf("failed to open log file %s: %w", filename, err)
		}
		l.filename = filename
	}

	l.started = true
	l.marker(fmt.Sprintf("==== session started (version %s) ====", version))
	return nil
}

// Close writes the end marker and closes the file sink. Records logged
// after Close only reach the console.
func (l *Logger) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if !l.started {
		return nil
	}

	l.marker("==== session ended ====")
	l.started = false
	l.filename = ""
	if err := l.file.close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// marker bypasses both thresholds.
func (l *Logger) marker(msg string) {
	entry := zapcore.Entry{
		Level:   toZap(LogLevelInfo),
		Time:    time.Now(),
		Message: msg,
	}
	_ = l.consoleCore.Write(entry, nil)
	_ = l.fileCore.Write(entry, nil)
}

func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	z := toZap(level)
	if !l.consoleLevel.Enabled(z) && !l.fileLevel.Enabled(z) {
		return
	}
	if ce := l.zap.Check(z, fmt.Sprintf(format, args...)); ce != nil {
		ce.Write()
	}
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.Log(LogLevelWarn, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.Log(LogLevelDebug, format, args...)
}

func (l *Logger) Trace(format string, args ...interface{}) {
	l.Log(LogLevelTrace, format, args...)
}

func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func Info(format string, args ...interface{}) {
	Default().Info(format, args...)
}

func Error(format string, args ...interface{}) {
	Default().Error(format, args...)
}

func Warn(format string, args ...interface{}) {
	Default().Warn(format, args...)
}

func Debug(format string, args ...interface{}) {
	Default().Debug(format, args...)
}

func Trace(format string, args ...interface{}) {
	Default().Trace(format, args...)
}

// consoleSink hands formatted lines to the live buffer through the
// dispatcher, or writes them directly when no dispatcher is configured.
type consoleSink struct {
	lock       sync.Mutex
	out        zapcore.WriteSyncer
	dispatcher *dispatch.Dispatcher
	buffer     *LiveBuffer
}

func (c *consoleSink) Write(p []byte) (int, error) {
	if c.dispatcher != nil && c.buffer != nil {
		line := strings.TrimRight(string(p), "\n")
		out := c.out
		c.dispatcher.Do(func() {
			c.buffer.Append(line)
			if out != nil {
				_, _ = out.Write([]byte(line + "\n"))
			}
		})
		return len(p), nil
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	return c.out.Write(p)
}

func (c *consoleSink) Sync() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.out.Sync()
}

// fileSink guards the lumberjack writer. active is checked in the same
// critical section as close so no write lands on a closed file.
type fileSink struct {
	lock   sync.Mutex
	active bool
	lj     *lumberjack.Logger
}

func (f *fileSink) open(filename string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	lj := &lumberjack.Logger{
		Filename: filename,
		MaxSize:  maxFileSizeMB,
	}
	// Rotate creates the file now so open errors surface at start.
	if err := lj.Rotate(); err != nil {
		return err
	}
	f.lj = lj
	f.active = true
	return nil
}

func (f *fileSink) Write(p []byte) (int, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if !f.active {
		return len(p), nil
	}
	if _, err := f.lj.Write(stripANSI(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *fileSink) Sync() error {
	return nil
}

func (f *fileSink) close() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if !f.active {
		return nil
	}
	f.active = false
	return f.lj.Close()
}

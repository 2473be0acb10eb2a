package lifecycle

import (
	"fmt"
	"sync"

	"github.com/cbodonnell/roomsync/pkg/log"
)

type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Logger is the part of the logger a controller opens and closes.
type Logger interface {
	Start(version string) error
	Close() error
	Warn(format string, args ...interface{})
	Info(format string, args ...interface{})
}

type NewControllerOptions struct {
	// Name identifies the server role in log lines.
	Name    string
	Version string
	Logger  Logger
	// OnStart runs after the logger is open. An error aborts the start.
	OnStart func() error
	// OnShutdown runs before the logger is closed.
	OnShutdown func() error
}

// Controller moves a server role between Stopped and Running.
type Controller struct {
	name       string
	version    string
	logger     Logger
	onStart    func() error
	onShutdown func() error

	lock  sync.Mutex
	state State
}

func NewController(opts NewControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	name := opts.Name
	if name == "" {
		name = "server"
	}
	return &Controller{
		name:       name,
		version:    opts.Version,
		logger:     logger,
		onStart:    opts.OnStart,
		onShutdown: opts.OnShutdown,
		state:      Stopped,
	}
}

// Start opens the logger and moves to Running. Starting a running server
// logs a warning and does nothing.
func (c *Controller) Start() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Running {
		c.logger.Warn("%s is already running", c.name)
		return nil
	}

	if err := c.logger.Start(c.version); err != nil {
		return fmt.Errorf("failed to start logger: %w", err)
	}
	if c.onStart != nil {
		if err := c.onStart(); err != nil {
			_ = c.logger.Close()
			return fmt.Errorf("failed to start %s: %w", c.name, err)
		}
	}

	c.state = Running
	c.logger.Info("%s started", c.name)
	return nil
}

// Shutdown moves a running server to Stopped and closes the logger.
// Shutting down a stopped server does nothing.
func (c *Controller) Shutdown() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.state == Stopped {
		return nil
	}

	var hookErr error
	if c.onShutdown != nil {
		hookErr = c.onShutdown()
	}
	c.logger.Info("%s shutting down", c.name)
	c.state = Stopped

	if err := c.logger.Close(); err != nil {
		return fmt.Errorf("failed to close logger: %w", err)
	}
	if hookErr != nil {
		return fmt.Errorf("failed to shut down %s: %w", c.name, hookErr)
	}
	return nil
}

func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Controller) Running() bool {
	return c.State() == Running
}

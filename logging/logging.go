package logging

import (
	"context"
	"log/slog"

	sdk "github.com/bunnydb/sdk"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const capabilityName = "logging"

// LevelTrace sits below slog.LevelDebug for slog-backed clients.
const LevelTrace = slog.Level(-8)

// Client exposes convenience helpers for emitting log entries.
type Client interface {
	Info(message string)
	Warn(message string)
	Error(message string)
	Debug(message string)
	Trace(message string)
}

// Config controls how a host-backed Client interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sdk.RuntimeConfig

	// HostCall overrides the waPC host function used for logging operations.
	HostCall func(string, string, string, []byte) ([]byte, error)
}

// client implements Client using the configured host call entrypoint.
type client struct {
	runtime  sdk.RuntimeConfig
	hostCall func(string, string, string, []byte) ([]byte, error)
}

// New creates a Client that emits logs through the host logging capability.
func New(cfg Config) (Client, error) {
	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	return &client{
		runtime:  cfg.SDKConfig.WithDefaults(),
		hostCall: hostCall,
	}, nil
}

func (c *client) Info(message string)  { c.log("Info", message) }
func (c *client) Warn(message string)  { c.log("Warn", message) }
func (c *client) Error(message string) { c.log("Error", message) }
func (c *client) Debug(message string) { c.log("Debug", message) }
func (c *client) Trace(message string) { c.log("Trace", message) }

func (c *client) log(fn string, message string) {
	_, _ = c.hostCall(c.runtime.Namespace, capabilityName, fn, []byte(message))
}

// slogClient adapts a *slog.Logger for native services.
type slogClient struct {
	logger *slog.Logger
}

// NewSlog returns a Client that writes to logger. A nil logger uses
// slog.Default(). Trace entries are logged at LevelTrace.
func NewSlog(logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogClient{logger: logger}
}

func (s *slogClient) Info(message string)  { s.logger.Info(message) }
func (s *slogClient) Warn(message string)  { s.logger.Warn(message) }
func (s *slogClient) Error(message string) { s.logger.Error(message) }
func (s *slogClient) Debug(message string) { s.logger.Debug(message) }
func (s *slogClient) Trace(message string) {
	s.logger.Log(context.Background(), LevelTrace, message)
}

type nop struct{}

// Nop returns a Client that discards every entry.
func Nop() Client { return nop{} }

func (nop) Info(string)  {}
func (nop) Warn(string)  {}
func (nop) Error(string) {}
func (nop) Debug(string) {}
func (nop) Trace(string) {}

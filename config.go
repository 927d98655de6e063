package afpacket

import (
	"io"
	"log/slog"

	"golang.org/x/net/bpf"
)

type Config struct {
	// DefaultInterface is used by Bind when called with an empty name.
	// Interface names depend on the host (predictable naming rarely yields
	// "eth0"), callers should always pass an explicit name.
	DefaultInterface string

	// RetryEINTR restarts send/recv interrupted by a signal.
	RetryEINTR bool

	// RecvBuffer/SendBuffer set SO_RCVBUF/SO_SNDBUF, 0 keeps kernel default.
	RecvBuffer int
	SendBuffer int

	Nonblock bool

	// Filter is attached after bind, nil means no filter.
	Filter []bpf.Instruction

	Logger *slog.Logger
}

type Option func(*Config)

func Options(opts ...Option) *Config {
	var cfg = &Config{
		DefaultInterface: "eth0",
		RetryEINTR:       true,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// DefaultInterface set the interface used by Bind(""), default "eth0"
func DefaultInterface(name string) Option {
	return func(c *Config) {
		c.DefaultInterface = name
	}
}

// RetryEINTR set whether interrupted send/recv are restarted, default true
func RetryEINTR(retry bool) Option {
	return func(c *Config) {
		c.RetryEINTR = retry
	}
}

func RecvBuffer(size int) Option {
	return func(c *Config) {
		c.RecvBuffer = size
	}
}

func SendBuffer(size int) Option {
	return func(c *Config) {
		c.SendBuffer = size
	}
}

// Nonblock put the descriptor in non-blocking mode, Send/Recv then
// return WouldBlock instead of waiting.
func Nonblock() Option {
	return func(c *Config) {
		c.Nonblock = true
	}
}

// Filter attach a classic BPF program to the socket once it is bound,
// see package helper/bpf.
func Filter(ins ...bpf.Instruction) Option {
	return func(c *Config) {
		c.Filter = ins
	}
}

func Logger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

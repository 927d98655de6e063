package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/lysShub/afpacket"
	"github.com/pkg/errors"
)

type Config struct {
	Interface string `yaml:"interface"`
	// Type is "raw" or "dgram"
	Type     string `yaml:"type"`
	Protocol uint16 `yaml:"protocol"`

	RecvBuffer int  `yaml:"recv_buffer"`
	SendBuffer int  `yaml:"send_buffer"`
	RetryEINTR bool `yaml:"retry_eintr"`

	Log Log `yaml:"log"`
}

type Log struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level"`
	// Format is text or json
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Type:       "raw",
		Protocol:   afpacket.ETH_P_ALL,
		RetryEINTR: true,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load read a yaml config file, fields absent from the file keep their
// default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg = Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.SocketType(); err != nil {
		return err
	}
	if c.RecvBuffer < 0 || c.SendBuffer < 0 {
		return errors.Errorf("invalid socket buffer size %d/%d", c.RecvBuffer, c.SendBuffer)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

func (c *Config) SocketType() (int, error) {
	switch strings.ToLower(c.Type) {
	case "raw":
		return afpacket.SOCK_RAW, nil
	case "dgram":
		return afpacket.SOCK_DGRAM, nil
	default:
		return 0, errors.Errorf("invalid socket type %q", c.Type)
	}
}

func (c *Config) Options(logger *slog.Logger) []afpacket.Option {
	var opts = []afpacket.Option{
		afpacket.RetryEINTR(c.RetryEINTR),
		afpacket.Logger(logger),
	}
	if c.RecvBuffer > 0 {
		opts = append(opts, afpacket.RecvBuffer(c.RecvBuffer))
	}
	if c.SendBuffer > 0 {
		opts = append(opts, afpacket.SendBuffer(c.SendBuffer))
	}
	return opts
}

func (l Log) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, errors.Errorf("invalid log level %q", l.Level)
	}
	return lvl, nil
}

func (l Log) Logger() *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	var opts = &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// Package config loads server settings from an optional env file, the
// process environment and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aaronzipp/echo-chamber/internal/logging"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "ECHO_"

// DefaultEnvFile is read when present
const DefaultEnvFile = ".env"

// Config holds server configuration.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":3000"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// AllowedOrigins are host patterns accepted for cross-origin WebSocket
	// upgrades; same-origin requests are always accepted.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	SendBuffer           int           `env:"SEND_BUFFER" envDefault:"256"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval         time.Duration `env:"PING_INTERVAL" envDefault:"30s"`
	MaxMessagesPerSecond int           `env:"MAX_MESSAGES_PER_SECOND" envDefault:"10"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Environ returns the process environment laid over the values of an
// optional env file. Process variables win; a missing file is not an error.
func Environ(envFile string) (map[string]string, error) {
	out := make(map[string]string)
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
		maps.Copy(out, vals)
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out, nil
}

// ParseConfig parses environ and then flags into Config. A nil environ means
// the process environment.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Base URL encoded in join QR codes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.PublicURL = strings.TrimRight(strings.TrimSpace(cfg.PublicURL), "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime
func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr is required")
	}
	switch strings.ToLower(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send buffer must be positive, got %d", c.SendBuffer)
	}
	if c.WriteTimeout <= 0 || c.PingInterval <= 0 {
		return errors.New("write timeout and ping interval must be positive")
	}
	if c.MaxMessagesPerSecond < 0 {
		return fmt.Errorf("max messages per second must not be negative, got %d", c.MaxMessagesPerSecond)
	}
	return nil
}

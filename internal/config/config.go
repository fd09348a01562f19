// Package config loads resforge settings from the environment.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	"github.com/resforge/resforge/internal/parallel"
	"github.com/resforge/resforge/internal/resource"
)

// ErrUnknownTextEncoding is returned for text encoding names outside TextEncodings.
var ErrUnknownTextEncoding = errors.New("unknown text encoding")

// Config holds the settings shared by every resforge command.
type Config struct {
	LogLevel      string `env:"RESFORGE_LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"RESFORGE_LOG_FORMAT" envDefault:"text"`
	BigEndian     bool   `env:"RESFORGE_BIG_ENDIAN"`
	TextEncoding  string `env:"RESFORGE_TEXT_ENCODING" envDefault:"raw"`
	TruncateFixed bool   `env:"RESFORGE_TRUNCATE_FIXED"`
	Workers       int    `env:"RESFORGE_WORKERS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

var textEncodings = map[string]encoding.Encoding{
	"raw":       nil,
	"shift-jis": japanese.ShiftJIS,
	"euc-jp":    japanese.EUCJP,
	"latin1":    charmap.ISO8859_1,
}

// TextEncodings lists the accepted RESFORGE_TEXT_ENCODING values.
func TextEncodings() []string {
	return []string{"raw", "shift-jis", "euc-jp", "latin1"}
}

// TextEncoding resolves an encoding name. "raw" and "" keep strings as raw bytes.
func TextEncoding(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	enc, ok := textEncodings[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTextEncoding, name)
	}
	return enc, nil
}

// Options converts the configuration into engine options that log through logger.
func (c Config) Options(logger logrus.FieldLogger) (resource.Options, error) {
	opts := resource.DefaultOptions()
	if c.BigEndian {
		opts.ByteOrder = binary.BigEndian
	}
	text, err := TextEncoding(c.TextEncoding)
	if err != nil {
		return resource.Options{}, err
	}
	opts.Text = text
	opts.TruncateFixed = c.TruncateFixed
	opts.Logger = logger
	return opts, nil
}

// Parallel returns the worker configuration. Zero workers means one per CPU.
func (c Config) Parallel() parallel.Config {
	return parallel.WithWorkers(c.Workers)
}

// NewLogger builds a stderr logger with the configured level and format.
func (c Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return logger, nil
}

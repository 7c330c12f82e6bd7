// Package logging builds the structured zap logger shared by ha-diag commands.
package logging

import (
	"fmt"
	"strings"

	"github.com/louisbranch/ha-diag/internal/platform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds env-parsed logger settings.
type Config struct {
	Level  string `env:"HA_DIAG_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"HA_DIAG_LOG_FORMAT" envDefault:"console"`
}

// LoadConfig reads logger settings from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// New builds a logger that writes to stderr. Stdout is left untouched so the
// MCP stdio transport can own it.
func New(cfg Config) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var zcfg zap.Config
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "console":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Development = false
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zcfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unsupported log format %q: must be console or json", cfg.Format)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// NewFromEnv loads settings from env and builds the logger.
func NewFromEnv() (*zap.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return zapcore.InfoLevel, nil
	}
	// HA add-on options use "trace"; zap has no finer level than debug.
	if raw == "trace" {
		return zapcore.DebugLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

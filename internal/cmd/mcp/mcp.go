// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"strings"

	entrypoint "github.com/louisbranch/ha-diag/internal/platform/cmd"
	"github.com/louisbranch/ha-diag/internal/platform/logging"
	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/louisbranch/ha-diag/internal/services/mcp/domain"
	"github.com/louisbranch/ha-diag/internal/services/mcp/service"
	"go.uber.org/zap"
)

// Config holds MCP command configuration.
type Config struct {
	Transport    string   `env:"HA_DIAG_MCP_TRANSPORT"     envDefault:"stdio"`
	HTTPAddr     string   `env:"HA_DIAG_MCP_HTTP_ADDR"     envDefault:"localhost:3000"`
	AllowedHosts []string `env:"HA_DIAG_MCP_ALLOWED_HOSTS" envSeparator:","`
	AuthToken    string   `env:"HA_DIAG_MCP_AUTH_TOKEN"`
	AllowOrigin  string   `env:"HA_DIAG_MCP_ALLOW_ORIGIN"  envDefault:"*"`
	AddonURL     string   `env:"HA_DIAG_ADDON_URL"`
	AddonToken   string   `env:"HA_DIAG_ADDON_TOKEN"`
	ConfigDir    string   `env:"HA_DIAG_CONFIG_DIR"        envDefault:"/config"`

	HomeAssistant homeassistant.Config
	Logging       logging.Config
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.ConfigDir, "config-dir", cfg.ConfigDir, "Home Assistant configuration directory for YAML lookups")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	options := entrypoint.RunOptions{Logger: logger}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceMCP, options, func(ctx context.Context) error {
		if err := service.Run(ctx, serviceConfig(cfg), dependencies(cfg, logger)); err != nil {
			return fmt.Errorf("serve MCP: %w", err)
		}
		return nil
	})
}

func serviceConfig(cfg Config) service.Config {
	return service.Config{
		Transport: service.TransportKind(strings.ToLower(strings.TrimSpace(cfg.Transport))),
		HTTP: service.HTTPConfig{
			Addr:         cfg.HTTPAddr,
			AllowedHosts: cfg.AllowedHosts,
			AuthToken:    cfg.AuthToken,
			AllowOrigin:  cfg.AllowOrigin,
			ConfigDir:    cfg.ConfigDir,
		},
	}
}

func dependencies(cfg Config, logger *zap.Logger) service.Dependencies {
	client := homeassistant.New(cfg.HomeAssistant, homeassistant.WithLogger(logger.Named("homeassistant")))
	if !cfg.HomeAssistant.SupervisorMode() && strings.TrimSpace(cfg.HomeAssistant.BaseURL) == "" {
		logger.Warn("no Home Assistant connection configured; set SUPERVISOR_TOKEN or HA_BASE_URL and HA_TOKEN")
	}

	deps := service.Dependencies{
		HomeAssistant: client,
		Logger:        logger,
	}
	if strings.TrimSpace(cfg.AddonURL) != "" {
		deps.YAMLDefinitions = domain.AddonClient{BaseURL: cfg.AddonURL, Token: cfg.AddonToken}
	}
	return deps
}

package mcp

import (
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/ha-diag/internal/services/mcp/domain"
	"github.com/louisbranch/ha-diag/internal/services/mcp/service"
	"go.uber.org/zap"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.HTTPAddr != "localhost:3000" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.AllowOrigin != "*" {
		t.Fatalf("expected default allow origin, got %q", cfg.AllowOrigin)
	}
	if cfg.ConfigDir != "/config" {
		t.Fatalf("expected default config dir, got %q", cfg.ConfigDir)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Logging.Level)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("HA_DIAG_MCP_HTTP_ADDR", "env-http")
	t.Setenv("HA_DIAG_MCP_ALLOWED_HOSTS", "homeassistant.local,a0d7b954-ha-diag")
	t.Setenv("HA_BASE_URL", "http://homeassistant.local:8123")
	t.Setenv("HA_TOKEN", "long-lived")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-http-addr", "flag-http", "-transport", "http"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "flag-http" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected transport http, got %q", cfg.Transport)
	}
	if diff := cmp.Diff([]string{"homeassistant.local", "a0d7b954-ha-diag"}, cfg.AllowedHosts); diff != "" {
		t.Fatalf("allowed hosts mismatch (-want +got):\n%s", diff)
	}
	if cfg.HomeAssistant.BaseURL != "http://homeassistant.local:8123" || cfg.HomeAssistant.Token != "long-lived" {
		t.Fatalf("unexpected home assistant config: %+v", cfg.HomeAssistant)
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := Config{
		Transport:    " HTTP ",
		HTTPAddr:     "0.0.0.0:3000",
		AllowedHosts: []string{"homeassistant.local"},
		AuthToken:    "secret",
		AllowOrigin:  "*",
		ConfigDir:    "/config",
	}
	got := serviceConfig(cfg)
	want := service.Config{
		Transport: service.TransportHTTP,
		HTTP: service.HTTPConfig{
			Addr:         "0.0.0.0:3000",
			AllowedHosts: []string{"homeassistant.local"},
			AuthToken:    "secret",
			AllowOrigin:  "*",
			ConfigDir:    "/config",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("service config mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencies(t *testing.T) {
	t.Run("without add-on url", func(t *testing.T) {
		deps := dependencies(Config{}, zap.NewNop())
		if deps.HomeAssistant == nil {
			t.Fatal("expected home assistant client")
		}
		if deps.YAMLDefinitions != nil {
			t.Fatalf("expected no YAML fetcher, got %T", deps.YAMLDefinitions)
		}
	})

	t.Run("with add-on url", func(t *testing.T) {
		deps := dependencies(Config{AddonURL: "http://ha:3000", AddonToken: "secret"}, zap.NewNop())
		client, ok := deps.YAMLDefinitions.(domain.AddonClient)
		if !ok {
			t.Fatalf("YAML fetcher = %T, want domain.AddonClient", deps.YAMLDefinitions)
		}
		if client.BaseURL != "http://ha:3000" || client.Token != "secret" {
			t.Fatalf("unexpected add-on client: %+v", client)
		}
	})
}

package homeassistant

import (
	"strings"

	"github.com/louisbranch/ha-diag/internal/platform/config"
)

const defaultSupervisorURL = "http://supervisor"

// Config selects how the client reaches Home Assistant.
//
// Supervisor mode is used whenever SupervisorToken is set: REST and WebSocket
// traffic goes through the Supervisor core proxy. Otherwise BaseURL and Token
// must both be set for direct mode.
type Config struct {
	BaseURL         string `env:"HA_BASE_URL"`
	Token           string `env:"HA_TOKEN"`
	SupervisorToken string `env:"SUPERVISOR_TOKEN"`
	SupervisorURL   string `env:"HA_DIAG_SUPERVISOR_URL" envDefault:"http://supervisor"`
}

// LoadConfig reads the client configuration from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SupervisorMode reports whether requests go through the Supervisor proxy.
func (c Config) SupervisorMode() bool {
	return strings.TrimSpace(c.SupervisorToken) != ""
}

func (c Config) supervisorURL() string {
	value := strings.TrimRight(strings.TrimSpace(c.SupervisorURL), "/")
	if value == "" {
		return defaultSupervisorURL
	}
	return value
}

// restBase returns the REST API root without a trailing slash.
func (c Config) restBase() (string, error) {
	if c.SupervisorMode() {
		return c.supervisorURL() + "/core/api", nil
	}
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.Token) == "" {
		return "", ErrNotConfigured
	}
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/") + "/api", nil
}

// restToken returns the bearer token for REST calls.
func (c Config) restToken() (string, error) {
	if c.SupervisorMode() {
		return strings.TrimSpace(c.SupervisorToken), nil
	}
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.Token) == "" {
		return "", ErrNotConfigured
	}
	return strings.TrimSpace(c.Token), nil
}

// websocketURL returns the WebSocket API endpoint.
func (c Config) websocketURL() (string, error) {
	var base string
	if c.SupervisorMode() {
		base = c.supervisorURL() + "/core"
	} else {
		base = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
		if base == "" {
			return "", ErrBaseURLMissing
		}
	}
	return httpToWS(base) + "/api/websocket", nil
}

// websocketToken prefers the long-lived token and falls back to the
// Supervisor token in add-on mode.
func (c Config) websocketToken() (string, error) {
	if token := strings.TrimSpace(c.Token); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(c.SupervisorToken); token != "" {
		return token, nil
	}
	return "", ErrWSTokenMissing
}

func httpToWS(raw string) string {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	default:
		return raw
	}
}

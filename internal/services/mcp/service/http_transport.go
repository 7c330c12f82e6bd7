package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/ha-diag/internal/platform/logging"
	"github.com/louisbranch/ha-diag/internal/platform/timeouts"
	"github.com/louisbranch/ha-diag/internal/services/automationyaml"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var listenTCP = net.Listen

const (
	defaultHTTPAddr    = "localhost:3000"
	defaultAllowOrigin = "*"
)

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// Addr is the listen address. Defaults to localhost:3000.
	Addr string
	// AllowedHosts extends the loopback hosts accepted in Host and Origin.
	AllowedHosts []string
	// AuthToken, when set, is required as a bearer token on /mcp and /yaml.
	AuthToken string
	// AllowOrigin is sent as Access-Control-Allow-Origin. Defaults to "*".
	AllowOrigin string
	// ConfigDir is the Home Assistant configuration directory for YAML lookups.
	ConfigDir string
}

// HTTPTransport serves MCP over streamable HTTP together with the add-on routes.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	authToken    string
	allowOrigin  string
	configDir    string
	server       *mcp.Server
	logger       *zap.Logger
}

// NewHTTPTransport creates an HTTP transport for the given MCP server. It
// binds to localhost unless configured otherwise.
func NewHTTPTransport(cfg HTTPConfig, server *mcp.Server, logger *zap.Logger) *HTTPTransport {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = defaultHTTPAddr
	}
	allowOrigin := strings.TrimSpace(cfg.AllowOrigin)
	if allowOrigin == "" {
		allowOrigin = defaultAllowOrigin
	}
	configDir := strings.TrimSpace(cfg.ConfigDir)
	if configDir == "" {
		configDir = automationyaml.DefaultConfigDir
	}
	return &HTTPTransport{
		addr:         addr,
		allowedHosts: parseAllowedHosts(cfg.AllowedHosts),
		authToken:    strings.TrimSpace(cfg.AuthToken),
		allowOrigin:  allowOrigin,
		configDir:    configDir,
		server:       server,
		logger:       logging.OrNop(logger),
	}
}

// Handler returns the HTTP routes served by the transport.
func (t *HTTPTransport) Handler() http.Handler {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return t.server
	}, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", t.handleRoot)
	mux.HandleFunc("GET /health", t.handleHealth)
	mux.Handle("/mcp", t.requireToken(mcpHandler))
	mux.Handle("GET /yaml/automation/{itemId}", t.requireToken(http.HandlerFunc(t.handleAutomationYAML)))
	return t.withCORS(t.withLocalRequest(mux))
}

// Start listens on the configured address and serves until ctx is done.
func (t *HTTPTransport) Start(ctx context.Context) error {
	listener, err := listenTCP("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.addr, err)
	}
	return t.Serve(ctx, listener)
}

// Serve handles requests on listener until ctx is done, then shuts down
// gracefully.
func (t *HTTPTransport) Serve(ctx context.Context, listener net.Listener) error {
	if t.server == nil {
		_ = listener.Close()
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	httpServer := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	t.logger.Info("starting MCP HTTP server", zap.String("addr", listener.Addr().String()))
	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		<-errChan
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("HTTP server error: %w", err)
	}
}

func (t *HTTPTransport) handleRoot(w http.ResponseWriter, _ *http.Request) {
	t.writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "Home automation diagnostics MCP server. Connect MCP clients to /mcp.",
	})
}

// handleHealth handles GET /health for health checks.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	t.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleAutomationYAML looks up a YAML-managed automation by item id.
func (t *HTTPTransport) handleAutomationYAML(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("itemId")
	result, err := automationyaml.Lookup(t.configDir, itemID)
	switch {
	case errors.Is(err, automationyaml.ErrNotFound):
		t.writeJSON(w, http.StatusNotFound, map[string]any{"error": "Not found in YAML", "itemId": itemID})
	case err != nil:
		t.logger.Warn("automation yaml lookup failed", zap.String("item_id", itemID), zap.Error(err))
		t.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	default:
		t.writeJSON(w, http.StatusOK, result)
	}
}

func (t *HTTPTransport) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		t.logger.Warn("write response failed", zap.Error(err))
	}
}

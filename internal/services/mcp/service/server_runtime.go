package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves streamable HTTP for add-on and remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTP      HTTPConfig
}

// Run is the service entrypoint for MCP and blocks until context cancellation.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}

	server, err := NewServer(deps)
	if err != nil {
		return err
	}
	server.logger.Info("starting MCP server",
		zap.String("transport", string(cfg.Transport)),
		zap.String("version", serverVersion),
	)

	switch cfg.Transport {
	case TransportHTTP:
		return NewHTTPTransport(cfg.HTTP, server.mcpServer, server.logger).Start(ctx)
	default:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	}
}

// serveWithTransport runs the MCP server on one transport until the client
// disconnects or the context ends.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	platformotel "github.com/louisbranch/ha-diag/internal/platform/otel"
	"github.com/louisbranch/ha-diag/internal/platform/requestctx"
	"github.com/louisbranch/ha-diag/internal/platform/timeouts"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response body is kept.
const maxErrorBody = 4 << 10

// Client talks to one Home Assistant host.
type Client struct {
	cfg            Config
	httpClient     *http.Client
	logger         *zap.Logger
	tracer         trace.Tracer
	requestTimeout time.Duration
	wsTimeout      time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for REST calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer overrides the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		if tracer != nil {
			c.tracer = tracer
		}
	}
}

// WithTimeouts overrides the per-request REST and WebSocket timeouts.
func WithTimeouts(request, websocket time.Duration) Option {
	return func(c *Client) {
		if request > 0 {
			c.requestTimeout = request
		}
		if websocket > 0 {
			c.wsTimeout = websocket
		}
	}
}

// New creates a client for the configured host. Configuration problems are
// reported per call so tools that need no HA access keep working.
func New(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg:            cfg,
		httpClient:     &http.Client{},
		logger:         zap.NewNop(),
		tracer:         platformotel.Tracer(),
		requestTimeout: timeouts.HARequest,
		wsTimeout:      timeouts.WSCommand,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// getJSON issues a REST GET against the core API and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	base, err := c.cfg.restBase()
	if err != nil {
		return err
	}
	token, err := c.cfg.restToken()
	if err != nil {
		return err
	}
	return c.do(ctx, "HA", http.MethodGet, base, path, token, nil, out)
}

// postJSON issues a REST POST against the core API.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	base, err := c.cfg.restBase()
	if err != nil {
		return err
	}
	token, err := c.cfg.restToken()
	if err != nil {
		return err
	}
	return c.do(ctx, "HA", http.MethodPost, base, path, token, body, out)
}

func (c *Client) do(ctx context.Context, api, method, base, path, token string, body any, out any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, "homeassistant "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ha.api", api),
			attribute.String("http.request.method", method),
			attribute.String("ha.path", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", api, method, path, err)
	}
	defer res.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	fields := []zap.Field{
		zap.String("api", api),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	}
	if invocationID := requestctx.InvocationIDFromContext(ctx); invocationID != "" {
		fields = append(fields, zap.String("invocation_id", invocationID))
	}
	c.logger.Debug("home assistant request", fields...)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return &HTTPError{
			API:        api,
			Method:     method,
			Path:       path,
			StatusCode: res.StatusCode,
			Status:     res.Status,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

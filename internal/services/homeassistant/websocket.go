package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/net/websocket"
)

// commandID is the message id used for the single command sent per socket.
const commandID = 1

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsMessage struct {
	ID      int             `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wsError        `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Command runs one WebSocket API command: connect, authenticate, send the
// command, and return the raw result of the matching response.
func (c *Client) Command(ctx context.Context, command map[string]any) (result json.RawMessage, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	commandType, _ := command["type"].(string)
	if strings.TrimSpace(commandType) == "" {
		return nil, fmt.Errorf("websocket command type is required")
	}

	ctx, span := c.tracer.Start(ctx, "homeassistant ws "+commandType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ha.ws.command", commandType)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint, err := c.cfg.websocketURL()
	if err != nil {
		return nil, err
	}
	token, err := c.cfg.websocketToken()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.wsTimeout)
	defer cancel()

	wsCfg, err := websocket.NewConfig(endpoint, originFor(endpoint))
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	conn, err := wsCfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// Unblock pending reads when the caller goes away.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := websocket.JSON.Send(conn, map[string]any{"type": "auth", "access_token": token}); err != nil {
		return nil, fmt.Errorf("send auth: %w", err)
	}

	payload := make(map[string]any, len(command)+1)
	for key, value := range command {
		payload[key] = value
	}
	payload["id"] = commandID

	sent := false
	for {
		var msg wsMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("websocket %s: %w", commandType, ctxErr)
			}
			if errors.Is(err, io.EOF) {
				return nil, ErrWSClosed
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return nil, fmt.Errorf("websocket receive: %w", err)
		}

		switch msg.Type {
		case "auth_required":
			continue
		case "auth_invalid":
			if msg.Message != "" {
				return nil, fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
			}
			return nil, ErrAuthInvalid
		case "auth_ok":
			if sent {
				continue
			}
			if err := websocket.JSON.Send(conn, payload); err != nil {
				return nil, fmt.Errorf("send %s: %w", commandType, err)
			}
			sent = true
			c.logger.Debug("websocket command sent", zap.String("command", commandType))
			continue
		}

		if msg.ID != commandID {
			continue
		}
		if !msg.Success {
			wsErr := &WSError{Command: commandType}
			if msg.Error != nil {
				wsErr.Code = msg.Error.Code
				wsErr.Message = msg.Error.Message
			}
			return nil, wsErr
		}
		return msg.Result, nil
	}
}

// RepairsListIssues lists the open Repairs issues (Settings -> Repairs).
func (c *Client) RepairsListIssues(ctx context.Context) (RepairIssues, error) {
	raw, err := c.Command(ctx, map[string]any{"type": "repairs/list_issues"})
	if err != nil {
		return RepairIssues{}, err
	}
	var issues RepairIssues
	if len(raw) == 0 || string(raw) == "null" {
		return issues, nil
	}
	if err := json.Unmarshal(raw, &issues); err != nil {
		return RepairIssues{}, fmt.Errorf("decode repairs/list_issues result: %w", err)
	}
	return issues, nil
}

func originFor(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "wss://"):
		return "https://" + hostOf(strings.TrimPrefix(endpoint, "wss://"))
	case strings.HasPrefix(endpoint, "ws://"):
		return "http://" + hostOf(strings.TrimPrefix(endpoint, "ws://"))
	default:
		return endpoint
	}
}

func hostOf(rest string) string {
	host, _, _ := strings.Cut(rest, "/")
	return host
}

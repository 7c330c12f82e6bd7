package homeassistant

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
	"golang.org/x/net/websocket"
)

type wsScenario struct {
	token   string
	result  any
	failure *wsError
	// closeEarly drops the socket after auth without answering.
	closeEarly bool
}

func newFakeHAWebSocket(t *testing.T, scenario wsScenario, commands chan<- map[string]any) *httptest.Server {
	t.Helper()
	handler := websocket.Handler(func(conn *websocket.Conn) {
		defer conn.Close()
		if err := websocket.JSON.Send(conn, map[string]any{"type": "auth_required", "ha_version": "2024.5.0"}); err != nil {
			return
		}
		var auth map[string]any
		if err := websocket.JSON.Receive(conn, &auth); err != nil {
			return
		}
		if auth["type"] != "auth" || auth["access_token"] != scenario.token {
			_ = websocket.JSON.Send(conn, map[string]any{"type": "auth_invalid", "message": "Invalid access token or password"})
			return
		}
		if err := websocket.JSON.Send(conn, map[string]any{"type": "auth_ok"}); err != nil {
			return
		}
		var command map[string]any
		if err := websocket.JSON.Receive(conn, &command); err != nil {
			return
		}
		if commands != nil {
			commands <- command
		}
		if scenario.closeEarly {
			return
		}
		// Unrelated traffic is ignored by id.
		_ = websocket.JSON.Send(conn, map[string]any{"id": 99, "type": "event"})
		reply := map[string]any{"id": command["id"], "type": "result", "success": scenario.failure == nil}
		if scenario.failure != nil {
			reply["error"] = scenario.failure
		} else {
			reply["result"] = scenario.result
		}
		_ = websocket.JSON.Send(conn, reply)
	})
	srv := httptest.NewServer(websocket.Server{Handler: handler})
	t.Cleanup(srv.Close)
	return srv
}

func TestCommandReturnsResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	commands := make(chan map[string]any, 1)
	srv := newFakeHAWebSocket(t, wsScenario{
		token:  "long-lived",
		result: map[string]any{"issues": []any{map[string]any{"issue_id": "deprecated_yaml", "domain": "http"}}},
	}, commands)

	issues, err := directClient(srv.URL).RepairsListIssues(context.Background())
	if err != nil {
		t.Fatalf("repairs: %v", err)
	}
	if len(issues.Issues) != 1 || issues.Issues[0]["issue_id"] != "deprecated_yaml" {
		t.Fatalf("unexpected issues %+v", issues)
	}
	command := <-commands
	if command["type"] != "repairs/list_issues" {
		t.Fatalf("unexpected command %v", command)
	}
	if id, ok := command["id"].(float64); !ok || id != commandID {
		t.Fatalf("expected id %d, got %v", commandID, command["id"])
	}
	srv.Close()
}

func TestCommandAuthInvalid(t *testing.T) {
	srv := newFakeHAWebSocket(t, wsScenario{token: "expected"}, nil)

	_, err := directClient(srv.URL).Command(context.Background(), map[string]any{"type": "get_config"})
	if !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestCommandFailureResult(t *testing.T) {
	srv := newFakeHAWebSocket(t, wsScenario{
		token:   "long-lived",
		failure: &wsError{Code: "unknown_command", Message: "Unknown command."},
	}, nil)

	_, err := directClient(srv.URL).Command(context.Background(), map[string]any{"type": "nope"})
	var wsErr *WSError
	if !errors.As(err, &wsErr) {
		t.Fatalf("expected WSError, got %T: %v", err, err)
	}
	if wsErr.Code != "unknown_command" || err.Error() != "Unknown command. (unknown_command)" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCommandClosedBeforeResult(t *testing.T) {
	srv := newFakeHAWebSocket(t, wsScenario{token: "long-lived", closeEarly: true}, nil)

	_, err := directClient(srv.URL).Command(context.Background(), map[string]any{"type": "get_config"})
	if !errors.Is(err, ErrWSClosed) {
		t.Fatalf("expected ErrWSClosed, got %v", err)
	}
}

func TestCommandHonorsTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(websocket.Server{Handler: func(conn *websocket.Conn) {
		<-blocked
		conn.Close()
	}})
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(blocked) })

	client := New(Config{BaseURL: srv.URL, Token: "tok"}, WithTimeouts(0, 50*time.Millisecond))
	start := time.Now()
	_, err := client.Command(context.Background(), map[string]any{"type": "get_config"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("command did not time out promptly: %s", elapsed)
	}
}

func TestCommandRequiresType(t *testing.T) {
	if _, err := directClient("http://ha.local").Command(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error for missing command type")
	}
}

func TestCommandRequiresToken(t *testing.T) {
	_, err := New(Config{BaseURL: "http://ha.local"}).Command(context.Background(), map[string]any{"type": "get_config"})
	if !errors.Is(err, ErrWSTokenMissing) {
		t.Fatalf("expected ErrWSTokenMissing, got %v", err)
	}
}

func TestRepairIssuesNullResult(t *testing.T) {
	srv := newFakeHAWebSocket(t, wsScenario{token: "long-lived", result: nil}, nil)

	issues, err := directClient(srv.URL).RepairsListIssues(context.Background())
	if err != nil {
		t.Fatalf("repairs: %v", err)
	}
	if len(issues.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestOriginFor(t *testing.T) {
	if got := originFor("wss://ha.example.com/api/websocket"); got != "https://ha.example.com" {
		t.Fatalf("got %q", got)
	}
	if got := originFor("ws://127.0.0.1:8123/api/websocket"); got != "http://127.0.0.1:8123" {
		t.Fatalf("got %q", got)
	}
}

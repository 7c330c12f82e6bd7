// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between the HA client, the MCP
// transports, and the CLI, and makes the durations discoverable.
package timeouts

import "time"

// HARequest caps a single Home Assistant REST call.
const HARequest = 10 * time.Second

// WSCommand caps a Home Assistant WebSocket round-trip: dial, auth, and the
// command result.
const WSCommand = 15 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

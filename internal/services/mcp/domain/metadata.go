package domain

import (
	"github.com/louisbranch/ha-diag/internal/platform/id"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// InvocationIDKey is the tool result _meta key carrying the invocation ID.
const InvocationIDKey = "ha-diag/invocation-id"

// NewInvocationID generates an invocation identifier for a tool call.
func NewInvocationID() (string, error) {
	return id.NewID()
}

// CallToolResultWithMetadata builds a tool result with correlation metadata.
// Content is left empty so the SDK fills it with the structured output.
func CallToolResultWithMetadata(invocationID string) *mcp.CallToolResult {
	result := &mcp.CallToolResult{}
	if invocationID != "" {
		result.Meta = map[string]any{InvocationIDKey: invocationID}
	}
	return result
}

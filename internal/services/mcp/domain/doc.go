// Package domain maps MCP tool calls onto Home Assistant diagnostics.
//
// Each tool has a definition (name and description) and a typed handler built
// from a HomeAssistant client. Handlers return structured outputs that MCP
// clients can render, plus a text copy for clients without structured content.
package domain

// Package service hosts the Home Assistant diagnostics MCP server.
//
// It registers the diagnostic tools from the domain package and serves them
// over stdio for local clients or over streamable HTTP when running as an
// add-on. The HTTP transport also exposes health routes and the YAML
// automation lookup used by remote stdio clients.
package service

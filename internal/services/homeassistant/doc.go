// Package homeassistant is the client for a Home Assistant host.
//
// It speaks the REST API for state, service, history and configuration reads,
// the WebSocket API for commands that have no REST route (repairs), and the
// Supervisor API when running as an add-on. The client doubles as the live
// registry reader and event sink for the service lister.
package homeassistant

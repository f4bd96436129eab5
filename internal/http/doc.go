// Package http serves the growth engine over a REST API.
//
// Routes live under /api/v1. Operations run through the same before/after
// tool hooks as the MCP server, keyed by the MCP tool name. /metrics exposes
// gate and incident gauges on a dedicated Prometheus registry, and stored
// markdown reports render to HTML when the client asks for text/html.
package http

// Package mcp exposes the growth engine as MCP tools over stdio.
//
// Every tool call runs the before_tool hooks (which may block it), the engine
// operation, then the after_tool hooks on the text result. Calls are traced
// and counted with OpenTelemetry.
package mcp

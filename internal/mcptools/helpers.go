// Package mcptools exposes the patient-data layer as MCP tools.
//
// Each tool follows the same pattern:
// - A struct with its dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Expected domain failures (validation, upstream rejection, missing
// session) come back as tool error results, never as Go errors: a Go
// error from Handle means the tool itself broke.
package mcptools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
)

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal, false
	}
	return v, true
}

// formatMeasurement renders one measurement as a markdown list entry.
func formatMeasurement(m health.Measurement) string {
	status := ""
	if m.Status != health.StatusUnknown {
		status = fmt.Sprintf(" [%s]", m.Status)
	}
	return fmt.Sprintf("- %s: **%s %s**%s (%s)",
		m.Timestamp.Format("2006-01-02 15:04"), m.Value, m.Unit, status, m.Type)
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
)

// HealthHistoryTool handles the health_history MCP tool. It lists the
// measurement history for one control, newest first.
type HealthHistoryTool struct {
	facade *health.Facade
}

// NewHealthHistoryTool creates a HealthHistoryTool over the facade.
func NewHealthHistoryTool(facade *health.Facade) *HealthHistoryTool {
	return &HealthHistoryTool{facade: facade}
}

// Definition returns the MCP tool definition for registration.
func (t *HealthHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("health_history",
		mcp.WithDescription(
			"List the measurement history for one control, newest first. "+
				"Use health_summary first to discover control ids.",
		),
		mcp.WithString("control_id",
			mcp.Required(),
			mcp.Description("Control id whose history to list."),
		),
		mcp.WithNumber("count",
			mcp.Description("Maximum number of entries to return. Default 10."),
		),
	)
}

// Handle processes the health_history tool call.
func (t *HealthHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	controlID := req.GetString("control_id", "")
	if controlID == "" {
		return mcp.NewToolResultError("control_id is required"), nil
	}
	count := intArg(req, "count", 10)
	if count < 1 {
		count = 1
	}

	if err := t.facade.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("loading patient data: %w", err)
	}

	history := t.facade.Measurements.History(controlID)
	if len(history) == 0 {
		return mcp.NewToolResultError(
			fmt.Sprintf("Sin historial para el control %q.", controlID)), nil
	}
	if len(history) > count {
		history = history[:count]
	}

	name := controlName(ctx, t.facade, controlID)
	var b strings.Builder
	fmt.Fprintf(&b, "# Historial: %s\n\n", name)
	for _, m := range history {
		b.WriteString(formatMeasurement(m))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// controlName resolves a control id to its display name, consulting the
// single-protocol detail for controls outside the cached list.
func controlName(ctx context.Context, facade *health.Facade, controlID string) string {
	if c, ok := facade.Controls.Lookup(ctx, controlID); ok {
		return c.Name
	}
	return controlID
}

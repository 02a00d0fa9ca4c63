package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
)

// HealthSummaryTool handles the health_summary MCP tool. It reports the
// latest measurement per control plus the pending-control list.
type HealthSummaryTool struct {
	facade *health.Facade
}

// NewHealthSummaryTool creates a HealthSummaryTool over the facade.
func NewHealthSummaryTool(facade *health.Facade) *HealthSummaryTool {
	return &HealthSummaryTool{facade: facade}
}

// Definition returns the MCP tool definition for registration.
func (t *HealthSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("health_summary",
		mcp.WithDescription(
			"Summarize the patient's current health data: the latest "+
				"measurement for each prescribed control and the list of "+
				"controls still pending or overdue. Loads data on first use.",
		),
	)
}

// Handle processes the health_summary tool call.
func (t *HealthSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.facade.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("loading patient data: %w", err)
	}

	controls := t.facade.Controls.Controls()
	if len(controls) == 0 {
		return mcp.NewToolResultText("Sin controles prescritos."), nil
	}

	var b strings.Builder
	b.WriteString("# Resumen de Salud\n\n## Últimas mediciones\n\n")
	for _, c := range controls {
		history := t.facade.Measurements.History(c.ID)
		if len(history) == 0 {
			fmt.Fprintf(&b, "- %s: sin mediciones registradas\n", c.Name)
			continue
		}
		last := history[0]
		fmt.Fprintf(&b, "- %s: **%s %s** (%s)\n",
			c.Name, last.Value, last.Unit, last.Timestamp.Format("2006-01-02"))
	}

	pending := t.facade.Controls.Pending()
	b.WriteString("\n## Controles pendientes\n\n")
	if len(pending) == 0 {
		b.WriteString("Ninguno. Todos los controles están al día.\n")
	} else {
		for _, c := range pending {
			marker := ""
			if c.Status == health.ControlOverdue {
				marker = " (atrasado)"
			}
			fmt.Fprintf(&b, "- %s%s\n", c.Name, marker)
		}
	}

	if msg := t.facade.Controls.Error(); msg != "" {
		fmt.Fprintf(&b, "\n_Nota: última sincronización falló (%s); se muestran datos en caché._\n", msg)
	}

	return mcp.NewToolResultText(b.String()), nil
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
	"github.com/miosalud/miosync/internal/plans"
)

// RefreshDataTool handles the refresh_data MCP tool. It forces a full
// reload of the patient data, bypassing the initialized guard.
type RefreshDataTool struct {
	facade *health.Facade
	plans  *plans.Store
}

// NewRefreshDataTool creates a RefreshDataTool over the facade and the
// plans store.
func NewRefreshDataTool(facade *health.Facade, planStore *plans.Store) *RefreshDataTool {
	return &RefreshDataTool{facade: facade, plans: planStore}
}

// Definition returns the MCP tool definition for registration.
func (t *RefreshDataTool) Definition() mcp.Tool {
	return mcp.NewTool("refresh_data",
		mcp.WithDescription(
			"Force a full reload of the patient's data from the backend, "+
				"replacing cached lists. Use when the user reports stale data.",
		),
	)
}

// Handle processes the refresh_data tool call.
func (t *RefreshDataTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.facade.ForceReload(ctx); err != nil {
		return nil, fmt.Errorf("reloading patient data: %w", err)
	}
	// A plans failure degrades the reload instead of aborting it: the
	// store keeps its previous cache and records the error.
	_ = t.plans.ForceReload(ctx)

	var degraded []string
	for _, src := range []struct {
		name string
		msg  string
	}{
		{"controles", t.facade.Controls.Error()},
		{"mediciones", t.facade.Measurements.Error()},
		{"servicios", t.facade.Services.Error()},
		{"campañas", t.facade.Campaigns.Error()},
		{"citas", t.facade.Appointments.Error()},
		{"contenido", t.facade.Content.Error()},
		{"planes", t.plans.Error()},
	} {
		if src.msg != "" {
			degraded = append(degraded, fmt.Sprintf("%s (%s)", src.name, src.msg))
		}
	}

	if len(degraded) > 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Datos actualizados parcialmente. Fuentes con error: %s. Se conserva la caché previa para ellas.",
			strings.Join(degraded, "; "))), nil
	}
	return mcp.NewToolResultText("Datos del paciente actualizados."), nil
}

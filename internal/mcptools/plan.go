package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/plans"
)

// ActivePlanTool handles the active_plan MCP tool. It lists the patient's
// health plans with the active selection and its theme, and can switch
// the active plan, persisting the choice.
type ActivePlanTool struct {
	plans *plans.Store
}

// NewActivePlanTool creates an ActivePlanTool over the plans store.
func NewActivePlanTool(store *plans.Store) *ActivePlanTool {
	return &ActivePlanTool{plans: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ActivePlanTool) Definition() mcp.Tool {
	return mcp.NewTool("active_plan",
		mcp.WithDescription(
			"List the patient's health plans and the active one with its "+
				"theme. Pass plan_id to activate a different plan; the "+
				"selection is persisted and survives restarts.",
		),
		mcp.WithString("plan_id",
			mcp.Description("Plan to activate. Omit to only list the plans."),
		),
	)
}

// Handle processes the active_plan tool call.
func (t *ActivePlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !t.plans.Initialized() {
		if err := t.plans.Fetch(ctx); err != nil {
			return nil, fmt.Errorf("loading plans: %w", err)
		}
	}

	list := t.plans.Plans()
	if len(list) == 0 {
		return mcp.NewToolResultText("El paciente no tiene planes de salud disponibles."), nil
	}

	if planID := req.GetString("plan_id", ""); planID != "" {
		var target *plans.Plan
		for i := range list {
			if list[i].ID == planID {
				target = &list[i]
				break
			}
		}
		if target == nil {
			return mcp.NewToolResultError(fmt.Sprintf("Plan %q no encontrado.", planID)), nil
		}
		t.plans.Activate(*target)
		list = t.plans.Plans()
	}

	var b strings.Builder
	b.WriteString("# Planes de Salud\n\n")
	for _, p := range list {
		fmt.Fprintf(&b, "- [%s] %s (%s)", p.ID, p.Name, p.Type)
		if p.Active {
			b.WriteString(" — activo")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTema activo: %s\n", t.plans.ActiveTheme().ClassName)
	return mcp.NewToolResultText(b.String()), nil
}

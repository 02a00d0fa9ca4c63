package mcptools

import (
	"context"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
)

// HealthTrendTool handles the health_trend MCP tool. It fits a linear
// least-squares line over a control's numeric history and reports slope,
// direction and the projected next value.
type HealthTrendTool struct {
	facade *health.Facade
}

// NewHealthTrendTool creates a HealthTrendTool over the facade.
func NewHealthTrendTool(facade *health.Facade) *HealthTrendTool {
	return &HealthTrendTool{facade: facade}
}

// Definition returns the MCP tool definition for registration.
func (t *HealthTrendTool) Definition() mcp.Tool {
	return mcp.NewTool("health_trend",
		mcp.WithDescription(
			"Compute the trend of a control's measurements by linear "+
				"regression: change per day, direction (subiendo / bajando / "+
				"estable) and the projected value one day after the last "+
				"measurement. Needs at least two measurements.",
		),
		mcp.WithString("control_id",
			mcp.Required(),
			mcp.Description("Control id whose history to analyze."),
		),
		mcp.WithNumber("window",
			mcp.Description("Use only the N most recent measurements. Default: all."),
		),
	)
}

// Handle processes the health_trend tool call.
func (t *HealthTrendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	controlID := req.GetString("control_id", "")
	if controlID == "" {
		return mcp.NewToolResultError("control_id is required"), nil
	}

	if err := t.facade.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("loading patient data: %w", err)
	}

	history := t.facade.Measurements.History(controlID)
	if window := intArg(req, "window", 0); window > 0 && len(history) > window {
		history = history[:window]
	}
	if len(history) < 2 {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Se necesitan al menos 2 mediciones del control %q para calcular una tendencia (hay %d).",
			controlID, len(history))), nil
	}

	trend := fitTrend(history)
	name := controlName(ctx, t.facade, controlID)
	unit := history[0].Unit

	response := fmt.Sprintf(
		"# Tendencia: %s\n\n"+
			"- Mediciones analizadas: %d\n"+
			"- Cambio por día: %+.2f %s\n"+
			"- Dirección: %s\n"+
			"- Proyección (próximo día): %.1f %s\n",
		name, len(history), trend.slopePerDay, unit, trend.direction, trend.projected, unit,
	)
	return mcp.NewToolResultText(response), nil
}

type trendResult struct {
	slopePerDay float64
	direction   string
	projected   float64
}

// fitTrend fits value = intercept + slope*t by ordinary least squares,
// with t in days since the oldest measurement. Direction is "estable" when
// the daily change is under half a percent of the mean value.
func fitTrend(history []health.Measurement) trendResult {
	n := len(history)
	origin := history[n-1].Timestamp

	var sumT, sumV, sumTT, sumTV float64
	for _, m := range history {
		t := m.Timestamp.Sub(origin).Hours() / 24
		sumT += t
		sumV += m.Numeric
		sumTT += t * t
		sumTV += t * m.Numeric
	}
	fn := float64(n)
	mean := sumV / fn

	denom := fn*sumTT - sumT*sumT
	var slope float64
	if denom != 0 {
		slope = (fn*sumTV - sumT*sumV) / denom
	}
	intercept := (sumV - slope*sumT) / fn

	direction := "estable"
	threshold := 0.005 * math.Abs(mean)
	switch {
	case slope > threshold:
		direction = "subiendo"
	case slope < -threshold:
		direction = "bajando"
	}

	lastT := history[0].Timestamp.Sub(origin).Hours() / 24
	projected := intercept + slope*(lastT+1)

	return trendResult{slopePerDay: slope, direction: direction, projected: projected}
}

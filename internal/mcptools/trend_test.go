package mcptools

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
)

func day(n int) time.Time {
	return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// history builds measurements newest first, one per day, from values given
// oldest first.
func historyOf(values ...float64) []health.Measurement {
	out := make([]health.Measurement, len(values))
	for i, v := range values {
		out[len(values)-1-i] = health.Measurement{Numeric: v, Timestamp: day(i)}
	}
	return out
}

func TestFitTrend_RisingSeries(t *testing.T) {
	trend := fitTrend(historyOf(90, 100, 110))

	if math.Abs(trend.slopePerDay-10) > 1e-9 {
		t.Errorf("slope = %v, want 10 per day", trend.slopePerDay)
	}
	if trend.direction != "subiendo" {
		t.Errorf("direction = %q, want subiendo", trend.direction)
	}
	if math.Abs(trend.projected-120) > 1e-9 {
		t.Errorf("projected = %v, want 120", trend.projected)
	}
}

func TestFitTrend_FallingSeries(t *testing.T) {
	trend := fitTrend(historyOf(82, 80.5, 79))

	if trend.direction != "bajando" {
		t.Errorf("direction = %q, want bajando", trend.direction)
	}
	if trend.slopePerDay >= 0 {
		t.Errorf("slope = %v, want negative", trend.slopePerDay)
	}
}

func TestFitTrend_FlatSeriesIsStable(t *testing.T) {
	trend := fitTrend(historyOf(120, 120.1, 119.9, 120))

	if trend.direction != "estable" {
		t.Errorf("direction = %q, want estable", trend.direction)
	}
}

func TestFitTrend_NoisySeriesStillFits(t *testing.T) {
	// Values around v = 90 + 5t with noise; slope must land near 5.
	trend := fitTrend(historyOf(91, 94, 101, 104, 111))

	if trend.slopePerDay < 4 || trend.slopePerDay > 6 {
		t.Errorf("slope = %v, want ~5", trend.slopePerDay)
	}
	if trend.direction != "subiendo" {
		t.Errorf("direction = %q, want subiendo", trend.direction)
	}
}

func TestTrendTool_Handle(t *testing.T) {
	gw := newFakeGateway()
	seedPatientData(gw)
	tool := NewHealthTrendTool(newFacade(gw))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"control_id": "20"}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "subiendo") {
		t.Errorf("result should report a rising trend, got:\n%s", text)
	}
	if !strings.Contains(text, "Glicemia Capilar") {
		t.Error("result should name the control")
	}
}

func TestTrendTool_Handle_InsufficientHistory(t *testing.T) {
	gw := newFakeGateway()
	seedPatientData(gw)
	gw.responses["/api/v1/protocol/observations/42/20"] = `[{"id":"m1","glucose":90,"fecha":"2026-05-01 08:00:00"}]`
	tool := NewHealthTrendTool(newFacade(gw))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"control_id": "20"}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result for a single-point history")
	}
	if !strings.Contains(getResultText(result), "al menos 2") {
		t.Error("error should state the two-measurement minimum")
	}
}

func TestTrendTool_Handle_MissingControlID(t *testing.T) {
	gw := newFakeGateway()
	seedPatientData(gw)
	tool := NewHealthTrendTool(newFacade(gw))

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{}

	result, err := tool.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected an error result when control_id is missing")
	}
}

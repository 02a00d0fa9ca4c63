package mcptools

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/miosalud/miosync/internal/health"
	"github.com/miosalud/miosync/internal/homacenter"
	"github.com/miosalud/miosync/internal/session"
)

// SubmitObservationTool handles the submit_observation MCP tool. The value
// is range-checked client-side, submitted to HOMA Center, and on success
// applied to the local history optimistically.
type SubmitObservationTool struct {
	center       *homacenter.Client
	measurements *health.MeasurementsStore
	sess         *session.Store
}

// NewSubmitObservationTool creates a SubmitObservationTool.
func NewSubmitObservationTool(center *homacenter.Client, measurements *health.MeasurementsStore, sess *session.Store) *SubmitObservationTool {
	return &SubmitObservationTool{center: center, measurements: measurements, sess: sess}
}

// Definition returns the MCP tool definition for registration.
func (t *SubmitObservationTool) Definition() mcp.Tool {
	return mcp.NewTool("submit_observation",
		mcp.WithDescription(
			"Submit one measured value for a control. The value is validated "+
				"against clinical ranges before anything is sent; out-of-range "+
				"values are rejected with the accepted range. Kinds: systolic, "+
				"diastolic, glucose, weight, spo2, temperature, heart_rate.",
		),
		mcp.WithString("control_id",
			mcp.Required(),
			mcp.Description("Control the value belongs to."),
		),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Observation kind, e.g. glucose or weight."),
		),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("Measured numeric value."),
		),
		mcp.WithString("note",
			mcp.Description("Optional free-text note attached to the value."),
		),
	)
}

// Handle processes the submit_observation tool call.
func (t *SubmitObservationTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.sess.RequireAuth("submit_observation"); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s. Inicia sesión desde la aplicación.", err)), nil
	}

	controlID := req.GetString("control_id", "")
	kind := req.GetString("kind", "")
	value, hasValue := floatArg(req, "value", 0)
	if controlID == "" || kind == "" || !hasValue {
		return mcp.NewToolResultError("control_id, kind and value are required"), nil
	}

	obs := homacenter.Observation{
		ControlID: controlID,
		Kind:      kind,
		Value:     value,
		Unit:      unitFor(kind),
		Note:      req.GetString("note", ""),
	}
	res := t.center.SubmitBatch(ctx, t.sess.PatientID(), []homacenter.Observation{obs})
	if !res.Success {
		return mcp.NewToolResultError(res.Error), nil
	}

	m := health.Measurement{
		ID:        uuid.NewString(),
		ControlID: controlID,
		Type:      typeFor(kind),
		Value:     strconv.FormatFloat(value, 'f', -1, 64),
		Numeric:   value,
		Unit:      obs.Unit,
		Timestamp: time.Now(),
		Status:    health.StatusUnknown,
	}
	t.measurements.AddMeasurement(controlID, m)

	return mcp.NewToolResultText(fmt.Sprintf(
		"Medición enviada: %s %s (%s). Registrada localmente.", m.Value, m.Unit, kind)), nil
}

func typeFor(kind string) health.MeasurementType {
	switch kind {
	case "systolic", "diastolic":
		return health.TypeBloodPressure
	case "glucose":
		return health.TypeGlucose
	case "weight":
		return health.TypeWeight
	case "heart_rate":
		return health.TypeHeartRate
	case "temperature":
		return health.TypeTemperature
	default:
		return health.TypeOther
	}
}

func unitFor(kind string) string {
	switch kind {
	case "systolic", "diastolic":
		return "mmHg"
	case "glucose":
		return "mg/dL"
	case "weight":
		return "kg"
	case "heart_rate":
		return "lpm"
	case "temperature":
		return "°C"
	case "spo2":
		return "%"
	default:
		return ""
	}
}

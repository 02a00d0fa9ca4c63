// Package homacenter submits patient observations to the HOMA Center
// write API. Writes are batched and validated client-side: a single bad
// value rejects the whole batch before any network traffic.
package homacenter

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/validate"
)

// BatchEndpoint receives observation batches.
const BatchEndpoint = "/api/homa-center/batch"

// Observation is one measured value headed upstream.
type Observation struct {
	ControlID string  `json:"control_id"`
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// Result is the submission outcome. Expected failures (validation,
// upstream rejection) come back here, not as an error.
type Result struct {
	Success bool
	Error   string
}

// Client wraps a gateway pointed at the HOMA Center base URL.
type Client struct {
	gw     homa.Gateway
	logger *zap.Logger
}

// NewClient creates a client over the given gateway.
func NewClient(gw homa.Gateway, logger *zap.Logger) *Client {
	return &Client{gw: gw, logger: logger}
}

// SubmitBatch validates every observation, then posts the batch. The first
// out-of-range value rejects the whole batch without touching the network.
func (c *Client) SubmitBatch(ctx context.Context, patientID int, observations []Observation) Result {
	if len(observations) == 0 {
		return Result{Success: false, Error: "No hay observaciones para enviar."}
	}
	for _, obs := range observations {
		if err := validate.Observation(obs.Kind, obs.Value); err != nil {
			return Result{Success: false, Error: err.Error()}
		}
	}

	payload := map[string]any{
		"patient_id":   patientID,
		"observations": observations,
	}
	if _, err := c.gw.Post(ctx, BatchEndpoint, payload); err != nil {
		// Deployments predating the batch proxy answer 404 here; those
		// still accept per-observation writes on the classic API.
		var httpErr *homa.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return c.submitLegacy(ctx, patientID, observations)
		}
		c.logger.Warn("batch submission failed",
			zap.Int("patient_id", patientID),
			zap.Int("count", len(observations)),
			zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}

	return Result{Success: true}
}

// submitLegacy posts each observation individually to the classic
// observations endpoint. The first failure aborts the run.
func (c *Client) submitLegacy(ctx context.Context, patientID int, observations []Observation) Result {
	for _, obs := range observations {
		payload := map[string]any{
			"patient_id": patientID,
			"control_id": obs.ControlID,
			"kind":       obs.Kind,
			"value":      obs.Value,
			"unit":       obs.Unit,
			"note":       obs.Note,
		}
		if _, err := c.gw.Post(ctx, homa.SubmitObservationEndpoint, payload); err != nil {
			c.logger.Warn("legacy observation submission failed",
				zap.Int("patient_id", patientID),
				zap.String("control_id", obs.ControlID),
				zap.Error(err))
			return Result{Success: false, Error: err.Error()}
		}
	}
	return Result{Success: true}
}

package health

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/miosalud/miosync/internal/shape"
)

// Alias tables for the upstream's mixed English/Spanish field names.
var (
	systolicKeys  = []string{"systolic", "sistolica", "presion_sistolica", "bpSystolic"}
	diastolicKeys = []string{"diastolic", "diastolica", "presion_diastolica", "bpDiastolic"}
	glucoseKeys   = []string{"glucose", "glicemia", "glucosa"}
	weightKeys    = []string{"weight", "peso", "weight_kg"}
	bpmKeys       = []string{"bpm", "heart_rate", "frecuencia_cardiaca", "pulso"}
	tempKeys      = []string{"temperature", "temperatura", "temp"}
	timeKeys      = []string{"timestamp", "date", "fecha", "created_at", "fecha_registro"}
	nameKeys      = []string{"name", "nombre", "title", "titulo"}
	statusKeys    = []string{"status", "estado", "alert_level", "nivel_alerta"}
)

// NormalizeObservation turns a raw upstream observation into a
// Measurement. Observations that carry none of the recognized numeric
// fields — pure questionnaire answers — are excluded from the numeric
// history: ok is false.
func NormalizeObservation(obs gjson.Result) (Measurement, bool) {
	m := Measurement{
		ID:     shape.FirstString(obs, "id", "observation_id", "uuid"),
		Name:   shape.FirstString(obs, nameKeys...),
		Status: normalizeStatus(shape.FirstString(obs, statusKeys...)),
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if ts, ok := shape.FirstTime(obs, timeKeys...); ok {
		m.Timestamp = ts
	}

	sys, hasSys := shape.FirstNumber(obs, systolicKeys...)
	dia, hasDia := shape.FirstNumber(obs, diastolicKeys...)
	glucose, hasGlucose := shape.FirstNumber(obs, glucoseKeys...)
	weight, hasWeight := shape.FirstNumber(obs, weightKeys...)
	bpm, hasBpm := shape.FirstNumber(obs, bpmKeys...)
	temp, hasTemp := shape.FirstNumber(obs, tempKeys...)

	switch {
	case hasSys && hasDia:
		m.Type = TypeBloodPressure
		m.Value = formatNumber(sys) + "/" + formatNumber(dia)
		m.Numeric = sys
		m.Unit = "mmHg"
	case hasGlucose:
		m.Type = TypeGlucose
		m.Value = formatNumber(glucose)
		m.Numeric = glucose
		m.Unit = "mg/dL"
	case hasWeight:
		m.Type = TypeWeight
		m.Value = formatNumber(weight)
		m.Numeric = weight
		m.Unit = "kg"
	case hasBpm:
		m.Type = TypeHeartRate
		m.Value = formatNumber(bpm)
		m.Numeric = bpm
		m.Unit = "lpm"
	case hasTemp:
		m.Type = TypeTemperature
		m.Value = formatNumber(temp)
		m.Numeric = temp
		m.Unit = "°C"
	default:
		return Measurement{}, false
	}

	return m, true
}

func normalizeStatus(raw string) MeasurementStatus {
	switch strings.ToLower(raw) {
	case "normal", "ok":
		return StatusNormal
	case "alert", "alerta", "warning":
		return StatusAlert
	case "critical", "critico", "crítico":
		return StatusCritical
	default:
		return StatusUnknown
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// normalizeControl maps one protocol entry to a Control.
func normalizeControl(item gjson.Result, now time.Time) Control {
	c := Control{
		ID:          shape.FirstString(item, "id", "protocol_id", "service_id"),
		Name:        shape.FirstString(item, nameKeys...),
		Description: shape.FirstString(item, "description", "descripcion", "detalle"),
	}
	c.Icon, c.Color = controlAppearance(c.Name)

	if ts, ok := shape.FirstTime(item, "scheduled_date", "fecha_programada", "fecha", "date"); ok {
		c.ScheduledDate = &ts
	}

	switch strings.ToLower(shape.FirstString(item, statusKeys...)) {
	case "completed", "realizado", "done":
		c.Status = ControlCompleted
	default:
		if c.ScheduledDate != nil && c.ScheduledDate.Before(now) {
			c.Status = ControlOverdue
		} else {
			c.Status = ControlPending
		}
	}
	return c
}

// controlAppearance infers the icon identifier and accent color from the
// control name.
func controlAppearance(name string) (icon, color string) {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "presi") || strings.Contains(n, "pressure"):
		return "blood-pressure", "#e74c3c"
	case strings.Contains(n, "glicemia") || strings.Contains(n, "glucos"):
		return "glucose", "#9b59b6"
	case strings.Contains(n, "peso") || strings.Contains(n, "weight"):
		return "weight", "#3498db"
	case strings.Contains(n, "cardiaca") || strings.Contains(n, "pulso") || strings.Contains(n, "heart"):
		return "heart-rate", "#e67e22"
	case strings.Contains(n, "temperatura") || strings.Contains(n, "temp"):
		return "temperature", "#f1c40f"
	case strings.Contains(n, "satur") || strings.Contains(n, "oxígeno") || strings.Contains(n, "oxigeno"):
		return "spo2", "#1abc9c"
	default:
		return "control", "#95a5a6"
	}
}

// FallbackControls is the fixed list shown when the live sources yield
// nothing, so the UI is never empty.
func FallbackControls() []Control {
	return []Control{
		{ID: "fallback-1", Name: "Presión Arterial", Icon: "blood-pressure", Color: "#e74c3c", Status: ControlPending},
		{ID: "fallback-2", Name: "Glicemia", Icon: "glucose", Color: "#9b59b6", Status: ControlPending},
		{ID: "fallback-3", Name: "Peso", Icon: "weight", Color: "#3498db", Status: ControlPending},
	}
}

package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeObservation_BloodPressure(t *testing.T) {
	obs := gjson.Parse(`{"id":"obs-1","systolic":120,"diastolic":80,"fecha":"2026-05-10 09:00:00","estado":"normal"}`)

	m, ok := NormalizeObservation(obs)
	require.True(t, ok)
	require.Equal(t, TypeBloodPressure, m.Type)
	require.Equal(t, "120/80", m.Value)
	require.Equal(t, "mmHg", m.Unit)
	require.Equal(t, 120.0, m.Numeric)
	require.Equal(t, StatusNormal, m.Status)
	require.Equal(t, time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC), m.Timestamp)
}

func TestNormalizeObservation_SpanishAliases(t *testing.T) {
	obs := gjson.Parse(`{"sistolica":"135","diastolica":"88"}`)

	m, ok := NormalizeObservation(obs)
	require.True(t, ok)
	require.Equal(t, "135/88", m.Value)
	require.Equal(t, TypeBloodPressure, m.Type)
}

func TestNormalizeObservation_Glucose(t *testing.T) {
	obs := gjson.Parse(`{"glicemia":95,"status":"alerta"}`)

	m, ok := NormalizeObservation(obs)
	require.True(t, ok)
	require.Equal(t, TypeGlucose, m.Type)
	require.Equal(t, "95", m.Value)
	require.Equal(t, "mg/dL", m.Unit)
	require.Equal(t, StatusAlert, m.Status)
}

func TestNormalizeObservation_WeightAndOthers(t *testing.T) {
	tests := []struct {
		json     string
		wantType MeasurementType
		wantUnit string
	}{
		{`{"peso":72.5}`, TypeWeight, "kg"},
		{`{"bpm":64}`, TypeHeartRate, "lpm"},
		{`{"temperatura":36.6}`, TypeTemperature, "°C"},
	}
	for _, tt := range tests {
		m, ok := NormalizeObservation(gjson.Parse(tt.json))
		require.True(t, ok, tt.json)
		require.Equal(t, tt.wantType, m.Type)
		require.Equal(t, tt.wantUnit, m.Unit)
	}
}

func TestNormalizeObservation_QuestionnaireExcluded(t *testing.T) {
	obs := gjson.Parse(`{"id":"obs-9","pregunta":"¿se siente bien?","respuesta":"sí"}`)

	_, ok := NormalizeObservation(obs)
	require.False(t, ok)
}

func TestNormalizeObservation_GeneratesIDWhenMissing(t *testing.T) {
	m, ok := NormalizeObservation(gjson.Parse(`{"glucose":100}`))
	require.True(t, ok)
	require.NotEmpty(t, m.ID)
}

func TestNormalizeObservation_UnknownStatus(t *testing.T) {
	m, ok := NormalizeObservation(gjson.Parse(`{"weight":80}`))
	require.True(t, ok)
	require.Equal(t, StatusUnknown, m.Status)
}

func TestNormalizeControl_OverdueFromPastSchedule(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	item := gjson.Parse(`{"id":20,"nombre":"GLICEMIA CAPILAR","fecha_programada":"2026-05-20"}`)

	c := normalizeControl(item, now)
	require.Equal(t, "20", c.ID)
	require.Equal(t, "GLICEMIA CAPILAR", c.Name)
	require.Equal(t, "glucose", c.Icon)
	require.Equal(t, ControlOverdue, c.Status)
}

func TestNormalizeControl_CompletedStatusWins(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	item := gjson.Parse(`{"id":3,"name":"Presión Arterial","estado":"realizado","fecha":"2026-05-20"}`)

	c := normalizeControl(item, now)
	require.Equal(t, ControlCompleted, c.Status)
	require.Equal(t, "blood-pressure", c.Icon)
}

func TestFallbackControls_FixedThree(t *testing.T) {
	controls := FallbackControls()
	require.Len(t, controls, 3)
	require.Equal(t, "Presión Arterial", controls[0].Name)
	require.Equal(t, "Glicemia", controls[1].Name)
	require.Equal(t, "Peso", controls[2].Name)
}

// Package validate enforces client-side numeric ranges for clinical
// observations before anything reaches the network.
package validate

import "fmt"

// ValidationError names the rejected field and its accepted range.
type ValidationError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s fuera de rango: %g (aceptado %g–%g)", e.Field, e.Value, e.Min, e.Max)
}

// Range is an inclusive accepted interval for one observation type.
type Range struct {
	Field string // user-facing, Spanish
	Min   float64
	Max   float64
}

// Ranges mirror the HOMA Center submission rules.
var Ranges = map[string]Range{
	"systolic":    {Field: "Presión Sistólica", Min: 50, Max: 300},
	"diastolic":   {Field: "Presión Diastólica", Min: 30, Max: 200},
	"glucose":     {Field: "Glicemia", Min: 20, Max: 1000},
	"weight":      {Field: "Peso", Min: 1, Max: 500},
	"spo2":        {Field: "Saturación de Oxígeno", Min: 50, Max: 100},
	"temperature": {Field: "Temperatura", Min: 30, Max: 45},
	"heart_rate":  {Field: "Frecuencia Cardíaca", Min: 30, Max: 250},
}

// Observation checks value against the range for kind. Unknown kinds pass:
// the upstream accepts free-form questionnaire answers alongside vitals.
func Observation(kind string, value float64) error {
	r, ok := Ranges[kind]
	if !ok {
		return nil
	}
	if value < r.Min || value > r.Max {
		return &ValidationError{Field: r.Field, Value: value, Min: r.Min, Max: r.Max}
	}
	return nil
}

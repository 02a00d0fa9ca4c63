// Package health holds the patient-data domain stores and the composite
// facade over them. Each store independently fetches, normalizes and caches
// one slice of patient data; the facade aggregates them behind a single
// load-everything surface with a single-flight guard.
package health

import "time"

// ControlStatus is the lifecycle position of a prescribed control.
type ControlStatus string

const (
	ControlPending   ControlStatus = "pending"
	ControlCompleted ControlStatus = "completed"
	ControlOverdue   ControlStatus = "overdue"
)

// Control is a prescribable health check (blood pressure, glucose, ...).
// Icon is an opaque identifier resolved to a renderable asset at the view
// boundary.
type Control struct {
	ID            string
	Name          string
	Description   string
	Icon          string
	Color         string
	ScheduledDate *time.Time
	Status        ControlStatus
}

// MeasurementType classifies a normalized observation.
type MeasurementType string

const (
	TypeBloodPressure MeasurementType = "blood_pressure"
	TypeWeight        MeasurementType = "weight"
	TypeGlucose       MeasurementType = "glucose"
	TypeHeartRate     MeasurementType = "heart_rate"
	TypeTemperature   MeasurementType = "temperature"
	TypeOther         MeasurementType = "other"
)

// MeasurementStatus is the upstream's clinical flag, normalized.
type MeasurementStatus string

const (
	StatusNormal   MeasurementStatus = "normal"
	StatusAlert    MeasurementStatus = "alert"
	StatusCritical MeasurementStatus = "critical"
	StatusUnknown  MeasurementStatus = "unknown"
)

// Measurement is one normalized observation. Blood pressure carries a
// composite "120/80" Value; every other type a formatted number. Numeric
// is the statistics input — systolic for blood pressure.
type Measurement struct {
	ID        string
	ControlID string
	Type      MeasurementType
	Name      string
	Value     string
	Numeric   float64
	Unit      string
	Timestamp time.Time
	Status    MeasurementStatus
}

// Service is one contracted patient service.
type Service struct {
	ID          string
	Name        string
	Description string
	Category    string
	Active      bool
}

// Campaign is a flat display entity for a health campaign.
type Campaign struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	LinkURL     string
	StartDate   *time.Time
	EndDate     *time.Time
}

// Appointment is a scheduled encounter with a professional.
type Appointment struct {
	ID           string
	Title        string
	Professional string
	Location     string
	Date         *time.Time
	Status       string
}

// Video is one piece of educational content.
type Video struct {
	ID          string
	Title       string
	Description string
	URL         string
	Thumbnail   string
	Duration    string
}

// Identity supplies the ids domain fetches are keyed on. The session
// store implements it.
type Identity interface {
	PatientID() int
	HealthPlanID() int
}

package homa

import "fmt"

// HOMA REST surface. All paths are relative to the configured base URL.
func PatientEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/patients/%d", patientID)
}

func PatientServicesEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/patients/%d/services", patientID)
}

func PatientCampaignsEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/patients/%d/campaigns", patientID)
}

func PlansEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/patients/plans/%d", patientID)
}

func MorePlansEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/patients/more_plans/%d", patientID)
}

func HealthPlanEndpoint(healthPlanID int) string {
	return fmt.Sprintf("/api/v1/healthplans/%d", healthPlanID)
}

func ProtocolsEndpoint(healthPlanID int) string {
	return fmt.Sprintf("/api/v1/protocols/%d", healthPlanID)
}

func ProtocolEndpoint(protocolID int) string {
	return fmt.Sprintf("/api/v1/protocol/%d", protocolID)
}

func ObservationsEndpoint(patientID, protocolID int) string {
	return fmt.Sprintf("/api/v1/protocol/observations/%d/%d", patientID, protocolID)
}

func LastInfoControlEndpoint(patientID int) string {
	return fmt.Sprintf("/api/v1/protocol/last_info_control/%d", patientID)
}

const (
	AuthorizationsEndpoint    = "/api/v1/authorizations"
	SubmitObservationEndpoint = "/api/v1/observations"
)

package homa

import "fmt"

// TimeoutMessage is the user-facing message for a request that was cut off
// by the deadline. Login surfaces it verbatim.
const TimeoutMessage = "La solicitud tardó demasiado. Inténtalo nuevamente."

// TimeoutError marks a request aborted by its deadline. A late response
// arriving after the abort is discarded by the transport.
type TimeoutError struct {
	Endpoint string
}

func (e *TimeoutError) Error() string { return TimeoutMessage }

// SessionExpiredError marks an HTTP 401. The client has already broadcast
// the session-expired signal by the time this is returned.
type SessionExpiredError struct {
	Endpoint string
}

func (e *SessionExpiredError) Error() string {
	return "sesión expirada (401): " + e.Endpoint
}

// HTTPError is any other non-2xx response. Message carries the
// server-supplied error text when a JSON body provided one, otherwise the
// status line.
type HTTPError struct {
	Status   int
	Endpoint string
	Message  string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d en %s: %s", e.Status, e.Endpoint, e.Message)
}

// NetworkError is a transport-level failure (DNS, connection refused).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("error de red en %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

package health

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// AppointmentsStore owns the patient's scheduled encounters. The upstream
// delivers them inside the health-plan envelope.
type AppointmentsStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	appointments []Appointment
	loading      bool
	initialized  bool
	errMsg       string
}

// NewAppointmentsStore creates an uninitialized appointments store.
func NewAppointmentsStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *AppointmentsStore {
	return &AppointmentsStore{gw: gw, ident: ident, logger: logger}
}

// Fetch replaces the list wholesale on success; failures record the error
// and keep the previous cache.
func (s *AppointmentsStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, homa.HealthPlanEndpoint(s.ident.HealthPlanID()))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	s.initialized = true

	items := shape.ExtractArray(res, "data.appointments", "appointments", "citas", "data.citas")
	appointments := make([]Appointment, 0, len(items))
	for _, item := range items {
		a := Appointment{
			ID:           shape.FirstString(item, "id", "appointment_id", "cita_id"),
			Title:        shape.FirstString(item, "title", "titulo", "name", "nombre"),
			Professional: shape.FirstString(item, "professional", "profesional", "doctor", "medico"),
			Location:     shape.FirstString(item, "location", "lugar", "direccion"),
			Status:       shape.FirstString(item, statusKeys...),
		}
		if ts, ok := shape.FirstTime(item, "date", "fecha", "scheduled_at"); ok {
			a.Date = &ts
		}
		appointments = append(appointments, a)
	}
	s.appointments = appointments
	return nil
}

// Appointments returns a copy of the cached list.
func (s *AppointmentsStore) Appointments() []Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Appointment, len(s.appointments))
	copy(out, s.appointments)
	return out
}

// ForceReload drops the initialized flag and fetches again.
func (s *AppointmentsStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *AppointmentsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AppointmentsStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *AppointmentsStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store; appointments are excluded from durable
// persistence.
func (s *AppointmentsStore) PersistID() string { return "appointments" }

// Reset restores construction-time defaults.
func (s *AppointmentsStore) Reset() {
	s.mu.Lock()
	s.appointments = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

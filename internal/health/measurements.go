package health

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// MeasurementsStore owns observation history, a mapping from control id to
// an ordered list, newest first, plus the session-wide latest measurement.
type MeasurementsStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	history     map[string][]Measurement
	latest      *Measurement
	loading     bool
	initialized bool
	errMsg      string
}

// NewMeasurementsStore creates an uninitialized measurements store.
func NewMeasurementsStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *MeasurementsStore {
	return &MeasurementsStore{
		gw:      gw,
		ident:   ident,
		logger:  logger,
		history: make(map[string][]Measurement),
	}
}

// Fetch pulls the last recorded value per control and refreshes the
// latest-measurement pointer.
func (s *MeasurementsStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, homa.LastInfoControlEndpoint(s.ident.PatientID()))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	s.initialized = true

	items := shape.ExtractArray(res, "data.info", "data.controls", "data", shape.Root)
	for _, item := range items {
		m, ok := NormalizeObservation(item)
		if !ok {
			continue
		}
		m.ControlID = shape.FirstString(item, "control_id", "protocol_id", "id_protocolo")
		if len(s.history[m.ControlID]) == 0 {
			s.history[m.ControlID] = []Measurement{m}
		}
		if s.latest == nil || m.Timestamp.After(s.latest.Timestamp) {
			latest := m
			s.latest = &latest
		}
	}
	return nil
}

// FetchHistory replaces the full history for one control wholesale. The
// control id doubles as the upstream protocol id. Observations without a
// recognized numeric field are excluded from the history view.
func (s *MeasurementsStore) FetchHistory(ctx context.Context, controlID string) error {
	protocolID, err := strconv.Atoi(controlID)
	if err != nil {
		// Fallback controls carry synthetic ids with no upstream history.
		return nil
	}

	res, err := s.gw.Get(ctx, homa.ObservationsEndpoint(s.ident.PatientID(), protocolID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = err.Error()
		return err
	}

	items := shape.ExtractArray(res, "data.observations", "observations", "data", shape.Root)
	list := make([]Measurement, 0, len(items))
	for _, item := range items {
		m, ok := NormalizeObservation(item)
		if !ok {
			continue
		}
		m.ControlID = controlID
		list = append(list, m)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp.After(list[j].Timestamp)
	})

	s.history[controlID] = list
	if len(list) > 0 && (s.latest == nil || list[0].Timestamp.After(s.latest.Timestamp)) {
		latest := list[0]
		s.latest = &latest
	}
	return nil
}

// AddMeasurement is a pure local mutation: it prepends m to the control's
// history and makes it the session-wide latest measurement regardless of
// its control id. No network call happens here.
func (s *MeasurementsStore) AddMeasurement(controlID string, m Measurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ControlID = controlID
	s.history[controlID] = append([]Measurement{m}, s.history[controlID]...)
	latest := m
	s.latest = &latest
}

// UpdateMeasurement scans every control's history for a matching id and
// replaces it in place. Returns false when no measurement matched.
func (s *MeasurementsStore) UpdateMeasurement(m Measurement) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for controlID, list := range s.history {
		for i := range list {
			if list[i].ID == m.ID {
				m.ControlID = controlID
				list[i] = m
				if s.latest != nil && s.latest.ID == m.ID {
					latest := m
					s.latest = &latest
				}
				return true
			}
		}
	}
	return false
}

// History returns a copy of the control's list, newest first.
func (s *MeasurementsStore) History(controlID string) []Measurement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.history[controlID]
	out := make([]Measurement, len(list))
	copy(out, list)
	return out
}

// Latest returns the session-wide latest measurement.
func (s *MeasurementsStore) Latest() (Measurement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Measurement{}, false
	}
	return *s.latest, true
}

// ForceReload drops the initialized flag and fetches again.
func (s *MeasurementsStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *MeasurementsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *MeasurementsStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *MeasurementsStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store; health data is excluded from durable
// persistence.
func (s *MeasurementsStore) PersistID() string { return "measurements" }

// Reset restores construction-time defaults.
func (s *MeasurementsStore) Reset() {
	s.mu.Lock()
	s.history = make(map[string][]Measurement)
	s.latest = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

package health

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// ControlsStore owns the list of prescribed controls. The protocol listing
// keyed by health-plan id is the primary source; the services-derived
// fallback is consulted only when the protocol source yields zero items.
// When nothing yields, the fixed fallback list keeps the UI populated.
type ControlsStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	controls    []Control
	loading     bool
	initialized bool
	errMsg      string

	now func() time.Time
}

// NewControlsStore creates an uninitialized controls store.
func NewControlsStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *ControlsStore {
	return &ControlsStore{gw: gw, ident: ident, logger: logger, now: time.Now}
}

// Fetch refreshes the list wholesale. On failure the previous cache is
// retained with the error recorded — unless the cache is empty, in which
// case the fallback list is substituted. Overlapping fetches are
// last-writer-wins; there is no generation stamping.
func (s *ControlsStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	controls, err := s.load(ctx)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		if len(s.controls) == 0 {
			s.controls = FallbackControls()
		}
		s.mu.Unlock()
		return err
	}
	s.errMsg = ""
	s.initialized = true
	if len(controls) == 0 {
		controls = FallbackControls()
	}
	s.controls = controls
	s.mu.Unlock()
	return nil
}

func (s *ControlsStore) load(ctx context.Context) ([]Control, error) {
	res, err := s.gw.Get(ctx, homa.ProtocolsEndpoint(s.ident.HealthPlanID()))
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := shape.ExtractArray(res, "data.protocol", "protocol", "data", shape.Root)
	controls := make([]Control, 0, len(items))
	for _, item := range items {
		controls = append(controls, normalizeControl(item, now))
	}
	if len(controls) > 0 {
		return controls, nil
	}

	// Protocol source yielded zero: consult the services-derived source.
	return s.loadFromServices(ctx, now)
}

func (s *ControlsStore) loadFromServices(ctx context.Context, now time.Time) ([]Control, error) {
	res, err := s.gw.Get(ctx, homa.PatientServicesEndpoint(s.ident.PatientID()))
	if err != nil {
		// Secondary source failing does not fail the fetch: the caller
		// substitutes the fallback list for the empty result.
		s.logger.Warn("services-derived controls unavailable", zap.Error(err))
		return nil, nil
	}

	items := shape.ExtractArray(res, "data.services", "services", "data", shape.Root)
	controls := make([]Control, 0, len(items))
	for _, item := range items {
		controls = append(controls, normalizeControl(item, now))
	}
	return controls, nil
}

// Lookup returns the control with the given id. On a cache miss the
// single-protocol detail endpoint is consulted and a hit is appended to
// the cached list, so measurements recorded against controls outside the
// prescribed listing still resolve to a name. Synthetic ids never go to
// the network.
func (s *ControlsStore) Lookup(ctx context.Context, controlID string) (Control, bool) {
	s.mu.RLock()
	for _, c := range s.controls {
		if c.ID == controlID {
			s.mu.RUnlock()
			return c, true
		}
	}
	s.mu.RUnlock()

	protocolID, err := strconv.Atoi(controlID)
	if err != nil {
		return Control{}, false
	}
	res, err := s.gw.Get(ctx, homa.ProtocolEndpoint(protocolID))
	if err != nil {
		s.logger.Warn("protocol detail unavailable", zap.String("control_id", controlID), zap.Error(err))
		return Control{}, false
	}
	item, ok := shape.ExtractObject(res, "data.protocol", "protocol", "data", shape.Root)
	if !ok {
		return Control{}, false
	}
	c := normalizeControl(item, s.now())
	if c.ID == "" {
		c.ID = controlID
	}
	if c.Name == "" {
		return Control{}, false
	}

	s.mu.Lock()
	s.controls = append(s.controls, c)
	s.mu.Unlock()
	return c, true
}

// ForceReload drops the initialized flag and fetches again, bypassing the
// facade's single-flight guard.
func (s *ControlsStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

// Controls returns a copy of the cached list.
func (s *ControlsStore) Controls() []Control {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Control, len(s.controls))
	copy(out, s.controls)
	return out
}

// IDs returns the ids of the cached controls, in order.
func (s *ControlsStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.controls))
	for i, c := range s.controls {
		ids[i] = c.ID
	}
	return ids
}

// Pending returns the controls still waiting to be performed.
func (s *ControlsStore) Pending() []Control {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Control
	for _, c := range s.controls {
		if c.Status == ControlPending || c.Status == ControlOverdue {
			out = append(out, c)
		}
	}
	return out
}

// HasPending reports whether any control awaits completion.
func (s *ControlsStore) HasPending() bool {
	return len(s.Pending()) > 0
}

func (s *ControlsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *ControlsStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Error returns the last fetch error message, empty when healthy.
func (s *ControlsStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store in the persistence policy table. Health
// data is excluded there; the id exists so the manager can still reset it.
func (s *ControlsStore) PersistID() string { return "controls" }

// Reset restores construction-time defaults.
func (s *ControlsStore) Reset() {
	s.mu.Lock()
	s.controls = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

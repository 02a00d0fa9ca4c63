package health

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// ServicesStore owns the patient's contracted services.
type ServicesStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	services    []Service
	loading     bool
	initialized bool
	errMsg      string
}

// NewServicesStore creates an uninitialized services store.
func NewServicesStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *ServicesStore {
	return &ServicesStore{gw: gw, ident: ident, logger: logger}
}

// Fetch replaces the list wholesale on success; failures record the error
// and keep the previous cache.
func (s *ServicesStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, homa.PatientServicesEndpoint(s.ident.PatientID()))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	s.initialized = true

	items := shape.ExtractArray(res, "data.services", "services", "data", shape.Root)
	services := make([]Service, 0, len(items))
	for _, item := range items {
		active := true
		if st := shape.FirstString(item, statusKeys...); st != "" {
			active = strings.EqualFold(st, "active") || strings.EqualFold(st, "activo")
		}
		services = append(services, Service{
			ID:          shape.FirstString(item, "id", "service_id"),
			Name:        shape.FirstString(item, nameKeys...),
			Description: shape.FirstString(item, "description", "descripcion"),
			Category:    shape.FirstString(item, "category", "categoria", "tipo"),
			Active:      active,
		})
	}
	s.services = services
	return nil
}

// Services returns a copy of the cached list.
func (s *ServicesStore) Services() []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, len(s.services))
	copy(out, s.services)
	return out
}

// ForceReload drops the initialized flag and fetches again.
func (s *ServicesStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *ServicesStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *ServicesStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *ServicesStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store; services are excluded from durable
// persistence (too volatile to cache client-side).
func (s *ServicesStore) PersistID() string { return "services" }

// Reset restores construction-time defaults.
func (s *ServicesStore) Reset() {
	s.mu.Lock()
	s.services = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

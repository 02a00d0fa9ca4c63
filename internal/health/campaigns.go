package health

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
)

// CampaignsStore owns the active health campaigns shown to the patient.
type CampaignsStore struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	logger *zap.Logger

	campaigns   []Campaign
	loading     bool
	initialized bool
	errMsg      string
}

// NewCampaignsStore creates an uninitialized campaigns store.
func NewCampaignsStore(gw homa.Gateway, ident Identity, logger *zap.Logger) *CampaignsStore {
	return &CampaignsStore{gw: gw, ident: ident, logger: logger}
}

// Fetch replaces the list wholesale on success; failures record the error
// and keep the previous cache.
func (s *CampaignsStore) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	res, err := s.gw.Get(ctx, homa.PatientCampaignsEndpoint(s.ident.PatientID()))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	s.errMsg = ""
	s.initialized = true

	items := shape.ExtractArray(res, "data.campaigns", "campaigns", "campanas", "data", shape.Root)
	campaigns := make([]Campaign, 0, len(items))
	for _, item := range items {
		c := Campaign{
			ID:          shape.FirstString(item, "id", "campaign_id"),
			Title:       shape.FirstString(item, "title", "titulo", "name", "nombre"),
			Description: shape.FirstString(item, "description", "descripcion", "detalle"),
			ImageURL:    shape.FirstString(item, "image", "imagen", "image_url", "banner"),
			LinkURL:     shape.FirstString(item, "url", "link", "enlace"),
		}
		if ts, ok := shape.FirstTime(item, "start_date", "fecha_inicio"); ok {
			c.StartDate = &ts
		}
		if ts, ok := shape.FirstTime(item, "end_date", "fecha_fin", "fecha_termino"); ok {
			c.EndDate = &ts
		}
		campaigns = append(campaigns, c)
	}
	s.campaigns = campaigns
	return nil
}

// Campaigns returns a copy of the cached list.
func (s *CampaignsStore) Campaigns() []Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Campaign, len(s.campaigns))
	copy(out, s.campaigns)
	return out
}

// ForceReload drops the initialized flag and fetches again.
func (s *CampaignsStore) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *CampaignsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *CampaignsStore) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *CampaignsStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store; campaigns are excluded from durable
// persistence.
func (s *CampaignsStore) PersistID() string { return "campaigns" }

// Reset restores construction-time defaults.
func (s *CampaignsStore) Reset() {
	s.mu.Lock()
	s.campaigns = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

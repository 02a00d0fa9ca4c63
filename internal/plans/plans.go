package plans

import (
	"context"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/shape"
	"github.com/miosalud/miosync/internal/storage"
)

// Plan is one health plan offered to the patient. Exactly one plan is
// active at any time; the active plan drives the theme.
type Plan struct {
	ID          string
	Name        string
	Type        string
	Description string
	Active      bool
}

// Identity supplies the patient id the plan endpoints key on.
type Identity interface {
	PatientID() int
}

// Store owns the plan list and the active selection. The active plan type
// is written through to durable storage so the selection survives restarts.
// Fully persisted.
type Store struct {
	mu     sync.RWMutex
	gw     homa.Gateway
	ident  Identity
	kv     storage.KV
	logger *zap.Logger

	plans       []Plan
	loading     bool
	initialized bool
	errMsg      string

	onChange func()
}

// NewStore creates an uninitialized plans store.
func NewStore(gw homa.Gateway, ident Identity, kv storage.KV, logger *zap.Logger) *Store {
	return &Store{gw: gw, ident: ident, kv: kv, logger: logger}
}

// Fetch loads the base and extended plan lists and merges them, deduplicating
// by id. Failures record the error and keep the previous cache. After a
// successful load exactly one plan is active: the durably stored type if it
// still exists in the list, otherwise the first plan.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	base, err := s.gw.Get(ctx, homa.PlansEndpoint(s.ident.PatientID()))
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.errMsg = err.Error()
		s.mu.Unlock()
		return err
	}

	merged := extract(base)

	// The extended list is additive; its failure does not degrade the load.
	if more, err := s.gw.Get(ctx, homa.MorePlansEndpoint(s.ident.PatientID())); err != nil {
		s.logger.Warn("extended plan list unavailable", zap.Error(err))
	} else {
		merged = append(merged, extract(more)...)
	}

	seen := map[string]bool{}
	plans := make([]Plan, 0, len(merged))
	for _, p := range merged {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		plans = append(plans, p)
	}

	stored, _ := s.kv.Get(storage.KeyActivePlan)

	s.mu.Lock()
	s.loading = false
	s.errMsg = ""
	s.initialized = true
	s.plans = plans
	s.markActive(stored)
	s.mu.Unlock()

	s.notifyChange()
	return nil
}

// markActive flags exactly one plan as active: the plan whose type matches
// wantType when present, the first plan otherwise. Caller holds mu.
func (s *Store) markActive(wantType string) {
	if len(s.plans) == 0 {
		return
	}
	idx := 0
	for i, p := range s.plans {
		if wantType != "" && p.Type == wantType {
			idx = i
			break
		}
	}
	for i := range s.plans {
		s.plans[i].Active = i == idx
	}
}

// Activate selects the given plan, persists its type under the active-plan
// key, and returns the theme descriptor for it. Unknown plans are a no-op
// and return the default theme.
func (s *Store) Activate(plan Plan) Theme {
	s.mu.Lock()
	found := false
	for i := range s.plans {
		if s.plans[i].ID == plan.ID {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return ForPlan("")
	}
	for i := range s.plans {
		s.plans[i].Active = s.plans[i].ID == plan.ID
	}
	planType := plan.Type
	s.mu.Unlock()

	if err := s.kv.Set(storage.KeyActivePlan, planType); err != nil {
		s.logger.Warn("active plan not persisted", zap.Error(err))
	}

	s.notifyChange()
	return ForPlan(planType)
}

// Plans returns a copy of the cached list.
func (s *Store) Plans() []Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plan, len(s.plans))
	copy(out, s.plans)
	return out
}

// Active returns the active plan, if any.
func (s *Store) Active() (Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.Active {
			return p, true
		}
	}
	return Plan{}, false
}

// ActiveTheme returns the theme descriptor for the active plan, falling
// back to the default when no plan is active yet.
func (s *Store) ActiveTheme() Theme {
	p, ok := s.Active()
	if !ok {
		return ForPlan("")
	}
	return ForPlan(p.Type)
}

// ForceReload drops the initialized flag and fetches again.
func (s *Store) ForceReload(ctx context.Context) error {
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
	return s.Fetch(ctx)
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// PersistID identifies the store in the persistence policy table.
func (s *Store) PersistID() string { return "plans" }

// Snapshot exports the full serializable state.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]map[string]any, len(s.plans))
	for i, p := range s.plans {
		items[i] = map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"type":        p.Type,
			"description": p.Description,
			"active":      p.Active,
		}
	}
	return map[string]any{
		"plans":       items,
		"initialized": s.initialized,
	}
}

// Apply restores a snapshot wholesale.
func (s *Store) Apply(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := state["plans"].([]any)
	if !ok {
		return
	}
	plans := make([]Plan, 0, len(raw))
	for _, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		active, _ := fields["active"].(bool)
		plans = append(plans, Plan{
			ID:          str(fields["id"]),
			Name:        str(fields["name"]),
			Type:        str(fields["type"]),
			Description: str(fields["description"]),
			Active:      active,
		})
	}
	s.plans = plans
	if init, ok := state["initialized"].(bool); ok {
		s.initialized = init
	}
}

// Reset restores construction-time defaults.
func (s *Store) Reset() {
	s.mu.Lock()
	s.plans = nil
	s.loading = false
	s.initialized = false
	s.errMsg = ""
	s.mu.Unlock()
}

// OnChange registers the persistence manager's mutation observer.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Store) notifyChange() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func extract(res gjson.Result) []Plan {
	items := shape.ExtractArray(res, "data.plans", "plans", "data", shape.Root)
	plans := make([]Plan, 0, len(items))
	for _, item := range items {
		plans = append(plans, Plan{
			ID:          shape.FirstString(item, "id", "plan_id"),
			Name:        shape.FirstString(item, "name", "nombre", "title", "titulo"),
			Type:        shape.FirstString(item, "type", "tipo", "plan_type"),
			Description: shape.FirstString(item, "description", "descripcion"),
		})
	}
	return plans
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

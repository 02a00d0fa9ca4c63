package persist

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/storage"
)

// Store is the minimal surface every registered store exposes. Excluded
// stores register with just this: they participate in ResetAll but never
// touch durable storage.
type Store interface {
	PersistID() string
	Reset()
}

// Persistable is a store whose state survives restarts. The manager
// restores it at attach time and saves on every change notification.
type Persistable interface {
	Store
	Snapshot() map[string]any
	Apply(state map[string]any)
	OnChange(fn func())
}

// Mode decides how much of a store's snapshot is durable.
type Mode int

const (
	// Excluded stores are never read from or written to storage. Health
	// data always re-syncs from the backend.
	Excluded Mode = iota
	// Full persists the whole snapshot and restores it wholesale.
	Full
	// Partial persists only whitelisted top-level fields; restore is a
	// merge-patch so everything else keeps fresh defaults.
	Partial
)

// Policy pairs a mode with its field whitelist (Partial only).
type Policy struct {
	Mode      Mode
	Whitelist []string
}

// DefaultPolicies is the fixed policy table. Unlisted store ids default to
// Excluded: a store must opt in to persistence here.
var DefaultPolicies = map[string]Policy{
	"content": {Mode: Full},
	"plans":   {Mode: Full},
	"session": {Mode: Partial, Whitelist: []string{"uid", "patientId", "healthPlanId", "lastLogin"}},

	"controls":     {Mode: Excluded},
	"measurements": {Mode: Excluded},
	"appointments": {Mode: Excluded},
	"services":     {Mode: Excluded},
	"campaigns":    {Mode: Excluded},
}

// Manager owns the durable copies of store state. Serialization and
// storage failures are logged and swallowed: a persistence hiccup must
// never break a mutation.
type Manager struct {
	mu       sync.Mutex
	kv       storage.KV
	logger   *zap.Logger
	policies map[string]Policy
	stores   []Store
}

// NewManager creates a manager over the given KV with the default policy
// table.
func NewManager(kv storage.KV, logger *zap.Logger) *Manager {
	return &Manager{kv: kv, logger: logger, policies: DefaultPolicies}
}

// Register adds a reset-only store. Used for excluded stores that still
// need to participate in ResetAll.
func (m *Manager) Register(s Store) {
	m.mu.Lock()
	m.stores = append(m.stores, s)
	m.mu.Unlock()
}

// Attach registers a persistable store, restores its durable state
// according to policy, and hooks its change notifications. Excluded stores
// fall back to plain registration.
func (m *Manager) Attach(p Persistable) {
	policy := m.policyFor(p.PersistID())
	if policy.Mode == Excluded {
		m.Register(p)
		return
	}

	m.Register(p)
	m.restore(p, policy)
	p.OnChange(func() { m.save(p, policy) })
}

func (m *Manager) policyFor(id string) Policy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if policy, ok := m.policies[id]; ok {
		return policy
	}
	return Policy{Mode: Excluded}
}

func (m *Manager) restore(p Persistable, policy Policy) {
	raw, err := m.kv.Get(storage.StoreKey(p.PersistID()))
	if err != nil {
		if err != storage.ErrMiss {
			m.logger.Warn("persisted state unreadable",
				zap.String("store", p.PersistID()), zap.Error(err))
		}
		return
	}

	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		m.logger.Warn("persisted state corrupt, ignoring",
			zap.String("store", p.PersistID()), zap.Error(err))
		return
	}

	if policy.Mode == Partial {
		state = pick(state, policy.Whitelist)
	}
	p.Apply(state)
}

func (m *Manager) save(p Persistable, policy Policy) {
	state := p.Snapshot()
	if policy.Mode == Partial {
		state = pick(state, policy.Whitelist)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		m.logger.Warn("snapshot not serializable",
			zap.String("store", p.PersistID()), zap.Error(err))
		return
	}
	if err := m.kv.Set(storage.StoreKey(p.PersistID()), string(raw)); err != nil {
		m.logger.Warn("snapshot not persisted",
			zap.String("store", p.PersistID()), zap.Error(err))
	}
}

// pick returns a shallow copy holding only the whitelisted keys that are
// present in state.
func pick(state map[string]any, whitelist []string) map[string]any {
	out := make(map[string]any, len(whitelist))
	for _, key := range whitelist {
		if v, ok := state[key]; ok {
			out[key] = v
		}
	}
	return out
}

// ResetAll resets every registered store and clears every managed key plus
// the session keys. Used on logout.
func (m *Manager) ResetAll() {
	m.mu.Lock()
	stores := make([]Store, len(m.stores))
	copy(stores, m.stores)
	m.mu.Unlock()

	for _, s := range stores {
		s.Reset()
	}

	keys, err := m.kv.Keys(storage.StorePrefix)
	if err != nil {
		m.logger.Warn("managed keys not listed", zap.Error(err))
	}
	keys = append(keys, storage.KeyToken, storage.KeySessionMeta, storage.KeyActivePlan)
	for _, key := range keys {
		if err := m.kv.Delete(key); err != nil {
			m.logger.Warn("durable key not cleared", zap.String("key", key), zap.Error(err))
		}
	}
}

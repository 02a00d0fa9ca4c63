package session

import "time"

// The session store participates in the persistence manager as a
// partially-persisted store: only the minimized identity whitelist leaves
// memory, PII fields never do.

// PersistID identifies the store in the persistence policy table.
func (s *Store) PersistID() string { return "session" }

// Snapshot exports the serializable state. The manager applies the
// whitelist before anything is written.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"uid":          s.sess.UID,
		"patientId":    s.sess.PatientID,
		"healthPlanId": s.sess.HealthPlanID,
		"lastLogin":    s.sess.LastLogin.UTC().Format(time.RFC3339),
		"name":         s.sess.Name,
		"lastName":     s.sess.LastName,
		"email":        s.sess.Email,
		"phone":        s.sess.Phone,
	}
}

// Apply merge-patches restored fields; anything absent keeps its fresh
// in-memory default.
func (s *Store) Apply(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := state["uid"].(string); ok && v != "" {
		s.sess.UID = v
	}
	if v, ok := asInt(state["patientId"]); ok {
		s.sess.PatientID = v
	}
	if v, ok := asInt(state["healthPlanId"]); ok {
		s.sess.HealthPlanID = v
	}
	if v, ok := state["lastLogin"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.sess.LastLogin = t
		}
	}
}

// Reset restores construction-time defaults. Used on logout teardown.
func (s *Store) Reset() {
	s.mu.Lock()
	s.sess = Session{}
	s.state = StateAnonymous
	s.mu.Unlock()
}

// OnChange registers the persistence manager's mutation observer.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// asInt tolerates the float64 that JSON round-trips produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

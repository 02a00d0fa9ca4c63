// Package session owns authentication state and the minimal user identity.
// Full name and contact fields live in memory only; what reaches durable
// storage is the minimized session meta (uid, patient id, health plan id,
// last login) — never PII.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/miosalud/miosync/internal/shape"
	"github.com/miosalud/miosync/internal/storage"
)

// State is the auth lifecycle position.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StatePartial  // authorized, minimal identity only
	StateHydrated // profile fetch completed
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StatePartial:
		return "authenticated(partial)"
	case StateHydrated:
		return "authenticated(hydrated)"
	default:
		return "anonymous"
	}
}

// Session is the in-memory identity. A session counts as authenticated
// only when both Token and PatientID are present.
type Session struct {
	Token        string
	UID          string
	PatientID    int
	HealthPlanID int
	LastLogin    time.Time

	// Memory only, never persisted.
	Name     string
	LastName string
	Email    string
	Phone    string
}

// Authenticated reports whether the session can call the API.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.PatientID > 0
}

// DisplayName is the derived UI name: full name when hydrated, otherwise
// the email local part, otherwise "Paciente".
func (s Session) DisplayName() string {
	full := strings.TrimSpace(s.Name + " " + s.LastName)
	if full != "" {
		return full
	}
	if at := strings.IndexByte(s.Email, '@'); at > 0 {
		return s.Email[:at]
	}
	return "Paciente"
}

// Initials derives up to two uppercase initials from the display name.
func (s Session) Initials() string {
	parts := strings.Fields(s.DisplayName())
	if len(parts) == 0 {
		return ""
	}
	initials := strings.ToUpper(parts[0][:1])
	if len(parts) > 1 {
		initials += strings.ToUpper(parts[1][:1])
	}
	return initials
}

// meta is the durable shape under mio-session-meta.
type meta struct {
	UID          string `json:"uid"`
	PatientID    int    `json:"patient_id"`
	HealthPlanID int    `json:"health_plan_id"`
	LastLogin    string `json:"lastLogin"`
}

func (s Session) toMeta() meta {
	return meta{
		UID:          s.UID,
		PatientID:    s.PatientID,
		HealthPlanID: s.HealthPlanID,
		LastLogin:    s.LastLogin.UTC().Format(time.RFC3339),
	}
}

func (m meta) toSession(token string) Session {
	sess := Session{
		Token:        token,
		UID:          m.UID,
		PatientID:    m.PatientID,
		HealthPlanID: m.HealthPlanID,
	}
	if t, err := time.Parse(time.RFC3339, m.LastLogin); err == nil {
		sess.LastLogin = t
	}
	return sess
}

// saveMeta writes the minimized meta; writeToken writes the bearer token.
// These are the only durable writes the session layer makes outside the
// persistence manager's key space.
func saveMeta(kv storage.KV, sess Session) error {
	raw, err := json.Marshal(sess.toMeta())
	if err != nil {
		return err
	}
	if err := kv.Set(storage.KeyToken, sess.Token); err != nil {
		return err
	}
	return kv.Set(storage.KeySessionMeta, string(raw))
}

// loadMeta reads the minimized meta, migrating the legacy mio-user blob
// (full profile, pre-minimization) on first read: the minimal fields are
// extracted, re-saved under the new key, and the legacy key deleted.
func loadMeta(kv storage.KV) (meta, bool) {
	if raw, err := kv.Get(storage.KeySessionMeta); err == nil {
		var m meta
		if json.Unmarshal([]byte(raw), &m) == nil && m.UID != "" {
			return m, true
		}
	}

	raw, err := kv.Get(storage.KeyLegacyUser)
	if err != nil {
		return meta{}, false
	}
	legacy := gjson.Parse(raw)
	m := meta{
		UID:       shape.FirstString(legacy, "uid", "user_id"),
		LastLogin: shape.FirstString(legacy, "lastLogin", "last_login"),
	}
	m.PatientID, _ = shape.FirstInt(legacy, "patient_id", "patientId", "id")
	m.HealthPlanID, _ = shape.FirstInt(legacy, "health_plan_id", "healthPlanId")
	if m.UID == "" && m.PatientID == 0 {
		return meta{}, false
	}

	if out, err := json.Marshal(m); err == nil {
		_ = kv.Set(storage.KeySessionMeta, string(out))
	}
	_ = kv.Delete(storage.KeyLegacyUser)
	return m, true
}

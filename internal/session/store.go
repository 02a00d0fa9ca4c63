package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/miosalud/miosync/internal/events"
	"github.com/miosalud/miosync/internal/homa"
	"github.com/miosalud/miosync/internal/retry"
	"github.com/miosalud/miosync/internal/shape"
	"github.com/miosalud/miosync/internal/storage"
)

// ProviderUser is the identity returned by the external identity provider.
type ProviderUser struct {
	UID   string
	Email string
	Name  string
}

// Provider abstracts the identity provider (Firebase in production).
type Provider interface {
	SignIn(ctx context.Context, email, password string) (ProviderUser, error)
	SignOut(ctx context.Context) error
}

// Result is the structured outcome of a write-path operation. Expected
// failures come back here, not as thrown errors.
type Result struct {
	Success bool
	Error   string
}

// NotAuthenticatedError marks an operation that needs a session when
// none is present.
type NotAuthenticatedError struct {
	Op string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("%s: no hay sesión activa", e.Op)
}

// RequireAuth guards operations that need a live session, returning a
// *NotAuthenticatedError naming the operation when there is none.
func (s *Store) RequireAuth(op string) error {
	if s.Authenticated() {
		return nil
	}
	return &NotAuthenticatedError{Op: op}
}

// Store is the session store. It drives the auth state machine
// anonymous → authenticating → authenticated(partial) → authenticated(hydrated)
// and reacts to the process-wide session-expired signal.
type Store struct {
	mu       sync.RWMutex
	gw       homa.Gateway
	kv       storage.KV
	bus      *events.Bus
	provider Provider
	logger   *zap.Logger

	state State
	sess  Session

	onChange func()
	now      func() time.Time
}

// NewStore creates the session store and subscribes it to the
// session-expired signal: an expired session clears in-memory identity and
// the stored token, dropping back to anonymous.
func NewStore(gw homa.Gateway, kv storage.KV, bus *events.Bus, provider Provider, logger *zap.Logger) *Store {
	s := &Store{
		gw:       gw,
		kv:       kv,
		bus:      bus,
		provider: provider,
		logger:   logger,
		state:    StateAnonymous,
		now:      time.Now,
	}
	bus.Subscribe(events.TopicSessionExpired, func(map[string]any) {
		s.expire()
	})
	return s
}

// Login authenticates against the identity provider, then authorizes
// against the backend keyed by the provider's UID and email. Concurrent
// submissions are not deduplicated; disabling the trigger is the caller's
// job. Nothing is persisted unless both steps succeed.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	s.setState(StateAuthenticating)

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.logger.Warn("provider sign-in failed", zap.Error(err))
		s.setState(StateAnonymous)
		return Result{Error: "Credenciales inválidas"}
	}

	auth, err := s.gw.Post(ctx, homa.AuthorizationsEndpoint, map[string]any{
		"uid":   user.UID,
		"email": user.Email,
	})
	if err != nil {
		s.logger.Warn("authorization failed", zap.String("uid", user.UID), zap.Error(err))
		s.setState(StateAnonymous)
		return Result{Error: err.Error()}
	}

	token := shape.FirstString(auth, "data.token", "token", "api_key")
	patientID, _ := shape.FirstInt(auth, "data.patient_id", "patient_id", "data.id", "id")
	if token == "" || patientID == 0 {
		s.logger.Warn("authorization response missing token or patient id")
		s.setState(StateAnonymous)
		return Result{Error: "Autorización inválida"}
	}
	healthPlanID, _ := shape.FirstInt(auth, "data.health_plan_id", "health_plan_id", "healthplan_id")

	sess := Session{
		Token:        token,
		UID:          user.UID,
		PatientID:    patientID,
		HealthPlanID: healthPlanID,
		LastLogin:    s.now(),
		Email:        user.Email,
		Name:         user.Name,
	}

	s.mu.Lock()
	s.sess = sess
	s.state = StatePartial
	s.mu.Unlock()

	if err := saveMeta(s.kv, sess); err != nil {
		s.logger.Error("persisting session meta failed", zap.Error(err))
	}

	s.bus.Publish(events.TopicLoginSuccess, map[string]any{
		"uid":        user.UID,
		"patient_id": patientID,
	})
	s.notifyChange()
	return Result{Success: true}
}

// Hydrate fetches the full profile. Best-effort: a failure logs a warning
// and leaves the session at authenticated(partial) — partial identity is
// enough to use the app.
func (s *Store) Hydrate(ctx context.Context) {
	s.mu.RLock()
	sess := s.sess
	authenticated := sess.Authenticated()
	s.mu.RUnlock()
	if !authenticated {
		return
	}

	// Hydration runs in the background, so transient failures get a few
	// more chances before giving up.
	var res gjson.Result
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
		var err error
		res, err = s.gw.Get(ctx, homa.PatientEndpoint(sess.PatientID))
		return err
	})
	if err != nil {
		s.logger.Warn("profile hydration failed", zap.Int("patient_id", sess.PatientID), zap.Error(err))
		return
	}

	patient, ok := shape.ExtractObject(res, "data.patient", "data", "patient", shape.Root)
	if !ok {
		s.logger.Warn("profile hydration returned no patient object")
		return
	}

	s.mu.Lock()
	if name := shape.FirstString(patient, "name", "nombre", "first_name"); name != "" {
		s.sess.Name = name
	}
	if last := shape.FirstString(patient, "last_name", "apellido", "apellidos"); last != "" {
		s.sess.LastName = last
	}
	if mail := shape.FirstString(patient, "email", "correo"); mail != "" {
		s.sess.Email = mail
	}
	if phone := shape.FirstString(patient, "phone", "telefono", "celular"); phone != "" {
		s.sess.Phone = phone
	}
	if hp, ok := shape.FirstInt(patient, "health_plan_id", "healthplan_id"); ok && hp > 0 {
		s.sess.HealthPlanID = hp
	}
	s.state = StateHydrated
	s.mu.Unlock()
	s.notifyChange()
}

// Restore rebuilds the session from durable storage at boot, returning
// true when a usable token + meta pair was found. Restoration is
// synchronous; hydration is the caller's asynchronous follow-up.
func (s *Store) Restore() bool {
	token, err := s.kv.Get(storage.KeyToken)
	if err != nil || token == "" {
		return false
	}
	m, ok := loadMeta(s.kv)
	if !ok {
		return false
	}
	sess := m.toSession(token)
	if !sess.Authenticated() {
		return false
	}

	s.mu.Lock()
	s.sess = sess
	s.state = StatePartial
	s.mu.Unlock()
	s.notifyChange()
	return true
}

// Logout clears the in-memory session synchronously, best-effort signs out
// of the identity provider, and always clears durable keys regardless of
// sign-out success.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	uid := s.sess.UID
	s.sess = Session{}
	s.state = StateAnonymous
	s.mu.Unlock()

	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign-out failed", zap.Error(err))
	}

	_ = s.kv.Delete(storage.KeyToken)
	_ = s.kv.Delete(storage.KeySessionMeta)
	_ = s.kv.Delete(storage.KeyActivePlan)

	s.bus.Publish(events.TopicLogout, map[string]any{"uid": uid})
	s.notifyChange()
}

// expire reacts to the session-expired broadcast.
func (s *Store) expire() {
	s.mu.Lock()
	s.sess = Session{}
	s.state = StateAnonymous
	s.mu.Unlock()
	_ = s.kv.Delete(storage.KeyToken)
	s.notifyChange()
}

// State returns the auth state machine position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a copy of the session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// Authenticated reports whether API calls can be made.
func (s *Store) Authenticated() bool {
	return s.Current().Authenticated()
}

// PatientID implements the identity lookup the domain stores key their
// fetches on.
func (s *Store) PatientID() int {
	return s.Current().PatientID
}

// HealthPlanID returns the active health plan id, 0 when unknown.
func (s *Store) HealthPlanID() int {
	return s.Current().HealthPlanID
}

func (s *Store) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Store) notifyChange() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/examstack/examgate/internal/core/domain"
	"github.com/examstack/examgate/internal/core/ports"
)

// User-facing operation messages. Failures prefer the server-provided
// reason; these are the fallbacks when none is present.
const (
	msgLoginSuccess    = "login successful"
	msgLoginFailed     = "login failed, please check your username and password"
	msgRegisterSuccess = "registration successful, please log in"
	msgRegisterFailed  = "registration failed, please try again later"
	msgProfileUpdated  = "profile updated successfully"
	msgProfileFailed   = "profile update failed, please try again later"
	msgPasswordChanged = "password changed successfully"
	msgPasswordFailed  = "password change failed"
)

// SessionManager owns the in-memory session and is its only writer.
// Consumers read through the projection methods and never mutate.
//
// Every session-establishing mutation bumps an internal generation
// counter; in-flight profile operations capture the generation before
// their network call and discard their result if it moved, so a clear
// (logout, 401 invalidation) is never overwritten by a stale response.
type SessionManager struct {
	store ports.CredentialStore
	api   ports.AuthAPI
	audit ports.AuditSink
	log   zerolog.Logger

	mu      sync.Mutex
	sess    domain.Session
	loading bool
	gen     uint64

	invalidated chan struct{}
}

// NewSessionManager wires a manager over the given store and backend
// client. A nil audit sink discards events.
func NewSessionManager(store ports.CredentialStore, api ports.AuthAPI, audit ports.AuditSink, log zerolog.Logger) *SessionManager {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &SessionManager{
		store:       store,
		api:         api,
		audit:       audit,
		log:         log,
		invalidated: make(chan struct{}, 1),
	}
}

// Restore loads the persisted credential into memory. The session is only
// established when both the token and the user record are present; a
// corrupt or partial record leaves it empty. No network call is made.
func (m *SessionManager) Restore(ctx context.Context) {
	token, user, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("session restore: credential store unavailable")
		return
	}
	if token == "" || user == nil {
		return
	}
	m.mu.Lock()
	m.gen++
	m.sess.Token = token
	m.sess.User = user.Clone()
	m.mu.Unlock()
}

// Login authenticates against the backend and, on success, atomically
// establishes and persists the session. Failures leave the session
// untouched and surface as a Result, never as an error.
func (m *SessionManager) Login(ctx context.Context, username, password string) domain.Result {
	m.setLoading(true)
	defer m.setLoading(false)

	token, user, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.log.Info().Err(err).Str("username", username).Msg("login failed")
		m.record(ctx, domain.SessionEvent{
			Type:     domain.EventLoginFailure,
			Username: username,
			Reason:   err.Error(),
			At:       time.Now().UTC(),
		})
		return domain.Failure(domain.ErrorMessage(err, msgLoginFailed))
	}

	m.mu.Lock()
	m.gen++
	m.sess.Token = token
	m.sess.User = user.Clone()
	m.mu.Unlock()

	if err := m.store.Save(ctx, token, user); err != nil {
		m.log.Warn().Err(err).Msg("login: persisting session failed")
	}
	m.record(ctx, domain.SessionEvent{
		Type:     domain.EventLoginSuccess,
		Username: user.Username,
		Role:     user.Role,
		At:       time.Now().UTC(),
	})
	return domain.Success(msgLoginSuccess)
}

// Register creates an account. It never establishes a session; the caller
// logs in separately.
func (m *SessionManager) Register(ctx context.Context, in domain.RegisterInput) domain.Result {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.api.Register(ctx, in); err != nil {
		m.log.Info().Err(err).Str("username", in.Username).Msg("registration failed")
		return domain.Failure(domain.ErrorMessage(err, msgRegisterFailed))
	}
	m.record(ctx, domain.SessionEvent{
		Type:     domain.EventRegister,
		Username: in.Username,
		At:       time.Now().UTC(),
	})
	return domain.Success(msgRegisterSuccess)
}

// Logout notifies the backend best-effort and then unconditionally clears
// the session and the persisted store. The local clear happens even when
// the server call fails or times out.
func (m *SessionManager) Logout(ctx context.Context) {
	username, role := m.identity()

	if err := m.api.Logout(ctx); err != nil {
		m.log.Warn().Err(err).Msg("logout notification failed")
	}

	m.clearLocal(ctx)
	m.record(ctx, domain.SessionEvent{
		Type:     domain.EventLogout,
		Username: username,
		Role:     role,
		At:       time.Now().UTC(),
	})
}

// FetchUserInfo refreshes the user profile for the current token. It is a
// no-op without a token. Any failure clears the entire session: this is
// the self-healing path that stops a stale token from lingering. A result
// arriving after the session moved on (new login, logout) is discarded.
func (m *SessionManager) FetchUserInfo(ctx context.Context) error {
	m.mu.Lock()
	token := m.sess.Token
	gen := m.gen
	m.mu.Unlock()
	if token == "" {
		return nil
	}

	user, err := m.api.FetchProfile(ctx)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.sess = domain.Session{}
		m.gen++
		m.mu.Unlock()

		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Warn().Err(cerr).Msg("forced clear: erasing credential store failed")
		}
		m.signalInvalidated()
		m.log.Info().Err(err).Msg("profile fetch failed, session cleared")
		m.record(ctx, domain.SessionEvent{
			Type:   domain.EventForcedClear,
			Reason: "profile fetch failed",
			At:     time.Now().UTC(),
		})
		return err
	}
	m.sess.User = user.Clone()
	m.mu.Unlock()

	if serr := m.store.Save(ctx, token, user); serr != nil {
		m.log.Warn().Err(serr).Msg("profile refresh: persisting session failed")
	}
	return nil
}

// UpdateProfile merges the partial update into the current user once the
// backend confirms it. Failures leave the session unchanged.
func (m *SessionManager) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) domain.Result {
	m.setLoading(true)
	defer m.setLoading(false)

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	updated, err := m.api.UpdateProfile(ctx, in)
	if err != nil {
		m.log.Info().Err(err).Msg("profile update failed")
		return domain.Failure(domain.ErrorMessage(err, msgProfileFailed))
	}

	m.mu.Lock()
	if m.gen != gen || !m.sess.LoggedIn() {
		m.mu.Unlock()
		return domain.Success(msgProfileUpdated)
	}
	m.sess.User = m.sess.User.Merge(updated)
	token := m.sess.Token
	user := m.sess.User.Clone()
	m.mu.Unlock()

	if serr := m.store.Save(ctx, token, user); serr != nil {
		m.log.Warn().Err(serr).Msg("profile update: persisting session failed")
	}
	return domain.Success(msgProfileUpdated)
}

// ChangePassword rotates the password. The session itself is not touched
// on success or failure.
func (m *SessionManager) ChangePassword(ctx context.Context, oldPassword, newPassword string) domain.Result {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.api.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		m.log.Info().Err(err).Msg("password change failed")
		return domain.Failure(domain.ErrorMessage(err, msgPasswordFailed))
	}
	return domain.Success(msgPasswordChanged)
}

// Invalidate is the local half of logout: no server round-trip, just the
// in-memory and persisted clear plus the invalidation signal. The request
// authenticator calls it when the backend rejects the credential.
func (m *SessionManager) Invalidate() {
	ctx := context.Background()
	m.clearLocal(ctx)
	m.signalInvalidated()
	m.record(ctx, domain.SessionEvent{
		Type:   domain.EventForcedClear,
		Reason: "credential rejected",
		At:     time.Now().UTC(),
	})
}

// Invalidated signals forced session clears. The hosting shell observes it
// and translates it into a navigation to the login page; the channel holds
// at most one pending signal.
func (m *SessionManager) Invalidated() <-chan struct{} {
	return m.invalidated
}

// Snapshot returns a read-only copy of the session.
func (m *SessionManager) Snapshot() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Session{
		Token:   m.sess.Token,
		User:    m.sess.User.Clone(),
		Loading: m.loading,
	}
}

// Token returns the current token, empty when logged out.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.Token
}

func (m *SessionManager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.LoggedIn()
}

func (m *SessionManager) IsAdmin() bool   { return m.roleIs(domain.RoleAdmin) }
func (m *SessionManager) IsTeacher() bool { return m.roleIs(domain.RoleTeacher) }
func (m *SessionManager) IsStudent() bool { return m.roleIs(domain.RoleStudent) }

// HasAnyRole reports whether the current user holds one of roles.
func (m *SessionManager) HasAnyRole(roles ...domain.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.HasAnyRole(roles...)
}

// Loading reports whether any user-initiated operation is in flight.
// Overlapping operations share the flag; the last to finish resets it.
func (m *SessionManager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func (m *SessionManager) roleIs(r domain.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess.RoleIs(r)
}

func (m *SessionManager) identity() (string, domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess.User == nil {
		return "", ""
	}
	return m.sess.User.Username, m.sess.User.Role
}

func (m *SessionManager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *SessionManager) clearLocal(ctx context.Context) {
	m.mu.Lock()
	m.sess = domain.Session{}
	m.gen++
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn().Err(err).Msg("erasing credential store failed")
	}
}

func (m *SessionManager) signalInvalidated() {
	select {
	case m.invalidated <- struct{}{}:
	default:
	}
}

func (m *SessionManager) record(ctx context.Context, event domain.SessionEvent) {
	if err := m.audit.Record(ctx, event); err != nil {
		m.log.Debug().Err(err).Str("event", string(event.Type)).Msg("audit record failed")
	}
}

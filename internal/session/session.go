// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds process-wide authentication state: the bearer
// token, the authenticated user's profile, and the pending-verification
// bookkeeping that spans signup and login. It is the single writer of
// that state; everything else reads through it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/keystore"
	"github.com/docuflow/docuflow-cli/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotLoggedIn indicates an operation that requires an active session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrBadCredentials indicates a rejected email/password pair.
	ErrBadCredentials = errors.New("invalid email or password")
)

// =============================================================================
// MANAGER
// =============================================================================

// Manager is the auth session holder.
//
// It is populated from the keystore on startup, written on login and
// signup, and torn down on logout or whenever the API client reports a
// 401. All methods are safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	store  *keystore.Store
	client *api.Client
	logf   func(string, ...any)

	token     string
	email     string
	profile   *model.Profile
	expiresAt time.Time

	// local marks a built-in test account. Local sessions never touch
	// the network or the keystore and exist only for the process lifetime.
	local bool

	pendingVerify string
	pendingReset  string

	onChange []func()
}

// NewManager builds a session manager around an API client and a
// credential store. The client is wired to read its bearer token from
// the session and to tear the session down on any 401.
func NewManager(client *api.Client, store *keystore.Store) *Manager {
	m := &Manager{
		store:  store,
		client: client,
		logf:   func(string, ...any) {},
	}
	client.WithTokenSource(m.Token).OnUnauthorized(m.Invalidate)
	return m
}

// WithLogger sets the debug log sink.
func (m *Manager) WithLogger(logf func(string, ...any)) *Manager {
	if logf != nil {
		m.logf = logf
	}
	return m
}

// OnChange registers a callback invoked after every session state
// transition (login, logout, invalidation, profile refresh). Callbacks
// run outside the session lock.
func (m *Manager) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = append(m.onChange, fn)
	m.mu.Unlock()
}

func (m *Manager) notify() {
	m.mu.RLock()
	callbacks := make([]func(), len(m.onChange))
	copy(callbacks, m.onChange)
	m.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}
}

// =============================================================================
// READ SIDE
// =============================================================================

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Email returns the authenticated account's email, or "".
func (m *Manager) Email() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.email
}

// Profile returns the cached profile, or nil before the first fetch.
func (m *Manager) Profile() *model.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// Role returns the authenticated user's role, defaulting to end user
// until the profile has been fetched.
func (m *Manager) Role() model.UserRole {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile != nil && m.profile.Role != "" {
		return m.profile.Role
	}
	return model.RoleEndUser
}

// IsAuthenticated reports whether a session is active.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// IsLocal reports whether the session belongs to a built-in test
// account rather than a backend login.
func (m *Manager) IsLocal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.local
}

// ExpiresAt returns the token's expiry from its exp claim, or the zero
// time when unknown.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

// ExpiresSoon reports whether the token expires within the window.
// Tokens with no readable exp claim never report as expiring.
func (m *Manager) ExpiresSoon(window time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.expiresAt.IsZero() {
		return false
	}
	return time.Until(m.expiresAt) < window
}

// =============================================================================
// PENDING FLOWS
// =============================================================================

// SetPendingVerification records the email awaiting a verification code
// so the verify step can run in a later invocation.
func (m *Manager) SetPendingVerification(email string) {
	m.mu.Lock()
	m.pendingVerify = email
	m.mu.Unlock()
	m.persist()
}

// PendingVerification returns the email awaiting verification, or "".
func (m *Manager) PendingVerification() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingVerify
}

// SetPendingReset records the email awaiting a password reset code.
func (m *Manager) SetPendingReset(email string) {
	m.mu.Lock()
	m.pendingReset = email
	m.mu.Unlock()
	m.persist()
}

// PendingReset returns the email awaiting a password reset, or "".
func (m *Manager) PendingReset() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pendingReset
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Restore loads stored credentials and re-validates them by fetching
// the profile. A missing keystore entry is not an error; the session
// simply stays logged out. An expired or rejected token clears the
// stored credentials.
func (m *Manager) Restore(ctx context.Context) error {
	creds, err := m.store.Load()
	if err != nil {
		if errors.Is(err, keystore.ErrNoCredentials) {
			return nil
		}
		return fmt.Errorf("failed to restore session: %w", err)
	}

	m.mu.Lock()
	m.token = creds.Token
	m.email = creds.Email
	m.pendingVerify = creds.PendingVerifyEmail
	m.pendingReset = creds.PendingResetEmail
	m.expiresAt = tokenExpiry(creds.Token)
	m.mu.Unlock()

	if creds.Token == "" {
		return nil
	}
	if exp := tokenExpiry(creds.Token); !exp.IsZero() && time.Now().After(exp) {
		m.logf("session: stored token expired at %s", exp.Format(time.RFC3339))
		m.Invalidate()
		return nil
	}

	if err := m.RefreshProfile(ctx); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// Invalidate already ran via the client's auth callback.
			return nil
		}
		// Offline is fine; keep the session and retry the profile later.
		m.logf("session: profile refresh failed: %v", err)
	}

	m.notify()
	return nil
}

// Login authenticates against the backend, or against the built-in test
// accounts when the email matches one. Backend credentials are
// persisted; test-account sessions are process-local only.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Profile, error) {
	if acct, ok := lookupTestAccount(email); ok {
		if acct.password != password {
			return nil, ErrBadCredentials
		}
		profile := acct.profile(email)
		m.mu.Lock()
		m.token = localTokenPrefix + email
		m.email = email
		m.profile = profile
		m.expiresAt = time.Time{}
		m.local = true
		m.mu.Unlock()
		m.logf("session: local test-account login for %s", email)
		m.notify()
		return profile, nil
	}

	tok, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.token = tok.AccessToken
	m.email = email
	m.expiresAt = tokenExpiry(tok.AccessToken)
	m.local = false
	m.pendingVerify = ""
	m.mu.Unlock()

	m.persist()

	if err := m.RefreshProfile(ctx); err != nil {
		m.logf("session: profile fetch after login failed: %v", err)
	}

	m.notify()
	return m.Profile(), nil
}

// Logout tears the session down. The backend logout call is best
// effort; local state and stored credentials are always cleared.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	local := m.local
	active := m.token != ""
	m.mu.RUnlock()

	if !active {
		return ErrNotLoggedIn
	}

	if !local {
		if err := m.client.Logout(ctx); err != nil {
			m.logf("session: backend logout failed: %v", err)
		}
	}

	m.clear()
	m.notify()
	return nil
}

// Invalidate clears the session without a backend call. It is wired as
// the API client's 401 callback and is idempotent.
func (m *Manager) Invalidate() {
	m.mu.RLock()
	active := m.token != ""
	m.mu.RUnlock()
	if !active {
		return
	}
	m.logf("session: invalidated")
	m.clear()
	m.notify()
}

// RefreshProfile re-fetches the profile for the active session. Local
// test-account sessions keep their synthetic profile.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	m.mu.RLock()
	local := m.local
	active := m.token != ""
	m.mu.RUnlock()

	if !active {
		return ErrNotLoggedIn
	}
	if local {
		return nil
	}

	profile, err := m.client.Profile(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.profile = profile
	if m.email == "" {
		m.email = profile.Email
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.token = ""
	m.email = ""
	m.profile = nil
	m.expiresAt = time.Time{}
	wasLocal := m.local
	m.local = false
	m.mu.Unlock()

	if !wasLocal {
		if err := m.store.Clear(); err != nil {
			m.logf("session: failed to clear stored credentials: %v", err)
		}
	}
}

// persist writes the current state to the keystore. Local sessions are
// never persisted.
func (m *Manager) persist() {
	m.mu.RLock()
	creds := keystore.Credentials{
		Token:              m.token,
		Email:              m.email,
		PendingVerifyEmail: m.pendingVerify,
		PendingResetEmail:  m.pendingReset,
	}
	local := m.local
	m.mu.RUnlock()

	if local {
		return
	}
	if err := m.store.Save(&creds); err != nil {
		m.logf("session: failed to persist credentials: %v", err)
	}
}

// =============================================================================
// STATUS
// =============================================================================

// Status is a point-in-time snapshot for the status command.
type Status struct {
	Authenticated bool
	Local         bool
	Email         string
	Role          model.UserRole
	ExpiresAt     time.Time
	PendingVerify string
}

// GetStatus returns the current session snapshot.
func (m *Manager) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	role := model.RoleEndUser
	if m.profile != nil && m.profile.Role != "" {
		role = m.profile.Role
	}
	return Status{
		Authenticated: m.token != "",
		Local:         m.local,
		Email:         m.email,
		Role:          role,
		ExpiresAt:     m.expiresAt,
		PendingVerify: m.pendingVerify,
	}
}

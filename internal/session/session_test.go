// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow-cli/internal/api"
	"github.com/docuflow/docuflow-cli/internal/keystore"
	"github.com/docuflow/docuflow-cli/internal/model"
)

func newTestManager(t *testing.T, baseURL string) (*Manager, *keystore.Store) {
	t.Helper()
	store, err := keystore.New(t.TempDir())
	require.NoError(t, err)

	client := api.New(baseURL).
		WithRetryPolicy(0, time.Millisecond).
		WithLogger(func(string, ...any) {})
	return NewManager(client, store), store
}

// failIfCalled returns a server whose handler fails the test on any hit.
func failIfCalled(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected network call: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}))
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	raw, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

// =============================================================================
// TEST-ACCOUNT SHORTCUT
// =============================================================================

func TestLoginTestAccountBypassesNetwork(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, store := newTestManager(t, srv.URL)

	profile, err := m.Login(context.Background(), "user@example.com", "password")
	require.NoError(t, err)

	assert.Equal(t, model.RoleEndUser, profile.Role)
	assert.Equal(t, "/chat", profile.Role.LandingTarget())
	assert.True(t, m.IsAuthenticated())
	assert.True(t, m.IsLocal())
	assert.False(t, store.HasCredentials(), "local sessions must not persist")
}

func TestLoginTestAccountAdminLandsOnAdmin(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, _ := newTestManager(t, srv.URL)

	profile, err := m.Login(context.Background(), "admin@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, model.RoleOrgAdmin, profile.Role)
	assert.Equal(t, "/admin", profile.Role.LandingTarget())
}

func TestLoginTestAccountWrongPassword(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, _ := newTestManager(t, srv.URL)

	_, err := m.Login(context.Background(), "user@example.com", "wrong")
	assert.True(t, errors.Is(err, ErrBadCredentials))
	assert.False(t, m.IsAuthenticated())
}

// =============================================================================
// BACKEND LOGIN
// =============================================================================

func TestLoginPersistsAndFetchesProfile(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			fmt.Fprintf(w, `{"data":{"access_token":%q,"token_type":"bearer"}}`, token)
		case "/api/v1/profile":
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"data":{"id":"u1","email":"jo@corp.example","name":"Jo","role":"org_admin"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	m, store := newTestManager(t, srv.URL)
	profile, err := m.Login(context.Background(), "jo@corp.example", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, model.RoleOrgAdmin, profile.Role)
	assert.True(t, store.HasCredentials())
	assert.False(t, m.IsLocal())
	assert.False(t, m.ExpiresAt().IsZero())
	assert.False(t, m.ExpiresSoon(time.Minute))

	creds, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, token, creds.Token)
	assert.Equal(t, "jo@corp.example", creds.Email)
}

func TestLoginRejectedLeavesNoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad credentials"}}`)
	}))
	defer srv.Close()

	m, store := newTestManager(t, srv.URL)
	_, err := m.Login(context.Background(), "jo@corp.example", "nope")
	assert.True(t, errors.Is(err, api.ErrUnauthorized))
	assert.False(t, m.IsAuthenticated())
	assert.False(t, store.HasCredentials())
}

// =============================================================================
// TEARDOWN
// =============================================================================

func Test401TearsDownSessionAndKeystore(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	authorized := true

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/auth/login":
			fmt.Fprintf(w, `{"data":{"access_token":%q,"token_type":"bearer"}}`, token)
		case !authorized:
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"expired"}}`)
		default:
			fmt.Fprint(w, `{"data":{"id":"u1","email":"jo@corp.example","role":"end_user"}}`)
		}
	}))
	defer srv.Close()

	m, store := newTestManager(t, srv.URL)
	_, err := m.Login(context.Background(), "jo@corp.example", "hunter22")
	require.NoError(t, err)
	require.True(t, store.HasCredentials())

	authorized = false
	err = m.RefreshProfile(context.Background())
	assert.True(t, errors.Is(err, api.ErrUnauthorized))

	assert.False(t, m.IsAuthenticated())
	assert.Nil(t, m.Profile())
	assert.False(t, store.HasCredentials())
}

func TestLogoutClearsEverything(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, _ := newTestManager(t, srv.URL)

	_, err := m.Login(context.Background(), "user@example.com", "password")
	require.NoError(t, err)

	changes := 0
	m.OnChange(func() { changes++ })

	require.NoError(t, m.Logout(context.Background()))
	assert.False(t, m.IsAuthenticated())
	assert.Equal(t, "", m.Token())
	assert.Equal(t, 1, changes)

	assert.True(t, errors.Is(m.Logout(context.Background()), ErrNotLoggedIn))
}

// =============================================================================
// RESTORE
// =============================================================================

func TestRestoreWithoutStoredCredentials(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, _ := newTestManager(t, srv.URL)

	require.NoError(t, m.Restore(context.Background()))
	assert.False(t, m.IsAuthenticated())
}

func TestRestoreExpiredTokenClearsStore(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, store := newTestManager(t, srv.URL)

	expired := signedToken(t, time.Now().Add(-time.Hour))
	require.NoError(t, store.Save(&keystore.Credentials{
		Token: expired,
		Email: "jo@corp.example",
	}))

	require.NoError(t, m.Restore(context.Background()))
	assert.False(t, m.IsAuthenticated())
	assert.False(t, store.HasCredentials())
}

func TestRestoreValidTokenFetchesProfile(t *testing.T) {
	token := signedToken(t, time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"u1","email":"jo@corp.example","role":"end_user"}}`)
	}))
	defer srv.Close()

	m, store := newTestManager(t, srv.URL)
	require.NoError(t, store.Save(&keystore.Credentials{Token: token, Email: "jo@corp.example"}))

	require.NoError(t, m.Restore(context.Background()))
	assert.True(t, m.IsAuthenticated())
	require.NotNil(t, m.Profile())
	assert.Equal(t, "jo@corp.example", m.Email())
}

func TestRestoreCarriesPendingVerification(t *testing.T) {
	srv := failIfCalled(t)
	defer srv.Close()
	m, store := newTestManager(t, srv.URL)

	require.NoError(t, store.Save(&keystore.Credentials{
		PendingVerifyEmail: "new@corp.example",
	}))

	require.NoError(t, m.Restore(context.Background()))
	assert.Equal(t, "new@corp.example", m.PendingVerification())
}

// =============================================================================
// TOKEN EXPIRY PARSING
// =============================================================================

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	assert.Equal(t, exp.Unix(), tokenExpiry(signedToken(t, exp)).Unix())

	assert.True(t, tokenExpiry("").IsZero())
	assert.True(t, tokenExpiry("not-a-jwt").IsZero())
	assert.True(t, tokenExpiry(localTokenPrefix+"user@example.com").IsZero())
}

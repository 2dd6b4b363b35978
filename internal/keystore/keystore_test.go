// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	in := &Credentials{
		Token:              "eyJhbGciOiJIUzI1NiJ9.payload.sig",
		Email:              "user@example.com",
		PendingVerifyEmail: "new@example.com",
	}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, in.Token, out.Token)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.PendingVerifyEmail, out.PendingVerifyEmail)
	assert.False(t, out.SavedAt.IsZero())
}

func TestLoadWithoutCredentials(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load()
	assert.True(t, errors.Is(err, ErrNoCredentials))
	assert.False(t, store.HasCredentials())
}

func TestTokenNotStoredInPlaintext(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	const token = "super-secret-bearer-token"
	require.NoError(t, store.Save(&Credentials{Token: token}))

	raw, err := os.ReadFile(filepath.Join(dir, "credentials.enc"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), token)
}

func TestClearIsIdempotent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&Credentials{Token: "t"}))
	assert.True(t, store.HasCredentials())

	require.NoError(t, store.Clear())
	assert.False(t, store.HasCredentials())

	// Second clear must not fail.
	require.NoError(t, store.Clear())

	_, err = store.Load()
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestTamperedFileFailsAuthentication(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(&Credentials{Token: "t"}))

	path := filepath.Join(dir, "credentials.enc")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	_, err = store.Load()
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
}

func TestOverwriteReplacesCredentials(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(&Credentials{Token: "first"}))
	require.NoError(t, store.Save(&Credentials{Token: "second"}))

	out, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", out.Token)
}

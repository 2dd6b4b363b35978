// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package keystore persists the bearer token and auth-flow state between
// runs. It is the terminal-client counterpart of the web client's browser
// storage: one credential record, encrypted at rest with AES-256-GCM under
// a PBKDF2-derived key, written atomically.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/docuflow/docuflow-cli/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// NonceSize is the AES-GCM nonce size (96 bits).
	NonceSize = 12

	// KeySize is the AES-256 key size.
	KeySize = 32

	// SaltSize is the PBKDF2 salt size.
	SaltSize = 32

	// PBKDF2Iterations follows OWASP guidance for PBKDF2-SHA-256.
	PBKDF2Iterations = 600_000

	credentialsFile = "credentials.enc"
	masterKeyFile   = "master.key"
	saltFile        = "master.salt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCredentials indicates no stored session exists.
	ErrNoCredentials = errors.New("no stored credentials")

	// ErrDecryptionFailed indicates the credential file could not be
	// authenticated (wrong key or tampered data).
	ErrDecryptionFailed = errors.New("credential decryption failed")
)

// =============================================================================
// CREDENTIALS RECORD
// =============================================================================

// Credentials is the single persisted auth record.
type Credentials struct {
	// Token is the bearer credential for API calls.
	Token string `json:"token"`
	// Email is the account the token belongs to.
	Email string `json:"email,omitempty"`

	// Emails carried across restarts during multi-step auth flows.
	PendingVerifyEmail string `json:"pending_verify_email,omitempty"`
	PendingResetEmail  string `json:"pending_reset_email,omitempty"`

	SavedAt time.Time `json:"saved_at"`
}

// =============================================================================
// STORE
// =============================================================================

// Store reads and writes the encrypted credential file.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// NewDefault creates a store under ~/.docuflow.
func NewDefault() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return New(filepath.Join(home, ".docuflow"))
}

// Save encrypts and persists the credential record.
func (s *Store) Save(creds *Credentials) error {
	creds.SavedAt = time.Now()

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	aead, err := s.cipher()
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// File layout: nonce || ciphertext||tag
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	zero(plaintext)

	return util.AtomicWriteFile(filepath.Join(s.dir, credentialsFile), sealed, 0o600)
}

// Load decrypts and returns the stored credentials.
// Returns ErrNoCredentials when nothing is stored.
func (s *Store) Load() (*Credentials, error) {
	sealed, err := os.ReadFile(filepath.Join(s.dir, credentialsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if len(sealed) < NonceSize {
		return nil, ErrDecryptionFailed
	}

	aead, err := s.cipher()
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer zero(plaintext)

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return &creds, nil
}

// Clear removes the stored credentials. Missing credentials are not an
// error: logout must be idempotent.
func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, credentialsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// HasCredentials reports whether a credential file exists without
// decrypting it.
func (s *Store) HasCredentials() bool {
	_, err := os.Stat(filepath.Join(s.dir, credentialsFile))
	return err == nil
}

// =============================================================================
// KEY MANAGEMENT
// =============================================================================

// cipher returns the AEAD for this store, generating the master key
// material and salt on first use.
func (s *Store) cipher() (cipher.AEAD, error) {
	master, err := s.loadOrCreate(masterKeyFile, KeySize)
	if err != nil {
		return nil, err
	}
	defer zero(master)

	salt, err := s.loadOrCreate(saltFile, SaltSize)
	if err != nil {
		return nil, err
	}

	key := pbkdf2.Key(master, salt, PBKDF2Iterations, KeySize, sha256.New)
	defer zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// loadOrCreate reads a random byte file, generating it with restrictive
// permissions when missing.
func (s *Store) loadOrCreate(name string, size int) ([]byte, error) {
	path := filepath.Join(s.dir, name)

	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != size {
			return nil, fmt.Errorf("corrupt key material in %s", name)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return data, nil
}

// zero wipes sensitive byte slices.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// docuflow client.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.docuflow/config.toml
//   - ~/.docuflow/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/docuflow/docuflow-cli/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete docuflow client configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API configuration
	API APIConfig `toml:"api" json:"api"`

	// Default location scope for folder/document commands
	LocationID string `toml:"location_id" json:"location_id"`

	// Sync configuration (local PDF upload watcher)
	Sync SyncConfig `toml:"sync" json:"sync"`

	// Cache configuration (local chat cache)
	Cache CacheConfig `toml:"cache" json:"cache"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains backend connection settings.
type APIConfig struct {
	// BaseURL is the backend base URL, e.g. https://api.docuflow.example
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs is the request timeout for standard calls (10-60 seconds).
	// Values outside the range are clamped.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// UploadTimeoutSecs is the timeout for multipart uploads and downloads.
	UploadTimeoutSecs int `toml:"upload_timeout_secs" json:"upload_timeout_secs"`
	// MaxRetries bounds automatic retries on transient list-load failures.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RetryBaseMs is the base backoff delay in milliseconds, doubled per attempt.
	RetryBaseMs int `toml:"retry_base_ms" json:"retry_base_ms"`
	// RequestsPerSec rate-limits outgoing API calls (0 = unlimited).
	RequestsPerSec float64 `toml:"requests_per_sec" json:"requests_per_sec"`
}

// SyncConfig configures the local upload watcher.
type SyncConfig struct {
	// Enabled turns the watcher on.
	Enabled bool `toml:"enabled" json:"enabled"`
	// WatchDir is the directory scanned for new PDF files.
	WatchDir string `toml:"watch_dir" json:"watch_dir"`
	// FolderID is the destination folder for uploads (empty = location root).
	FolderID string `toml:"folder_id" json:"folder_id"`
	// ProcessAfterUpload triggers processing for each uploaded document.
	ProcessAfterUpload bool `toml:"process_after_upload" json:"process_after_upload"`
	// DebounceMs waits for a file to stop changing before uploading.
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// CacheConfig configures the local chat cache.
type CacheConfig struct {
	// Enabled turns the read-through SQLite cache on.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path is the database path (empty = ~/.docuflow/cache.db).
	Path string `toml:"path" json:"path"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown enables glamour rendering of assistant messages.
	Markdown bool `toml:"markdown" json:"markdown"`
	// Timestamps shows message timestamps in the chat view.
	Timestamps bool `toml:"timestamps" json:"timestamps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:           "https://api.docuflow.example",
			TimeoutSecs:       30,
			UploadTimeoutSecs: 60,
			MaxRetries:        3,
			RetryBaseMs:       500,
			RequestsPerSec:    10,
		},
		Sync: SyncConfig{
			Enabled:            false,
			ProcessAfterUpload: true,
			DebounceMs:         500,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		UI: UIConfig{
			Theme:      "auto",
			Markdown:   true,
			Timestamps: false,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the docuflow configuration directory (~/.docuflow).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".docuflow"), nil
}

// PathTOML returns the TOML config file path.
func PathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the JSON config file path.
func PathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the configuration, preferring TOML over JSON, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := PathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, err
			}
			cfg.ApplyEnvOverrides()
			cfg.clamp()
			return cfg, cfg.Validate()
		}
	}

	if path, err := PathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadJSON(cfg, path); err != nil {
				return nil, err
			}
			cfg.ApplyEnvOverrides()
			cfg.clamp()
			return cfg, cfg.Validate()
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.clamp()
	return cfg, cfg.Validate()
}

// LoadFromPath reads configuration from an explicit file, inferring the
// format from the extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	var err error
	if strings.HasSuffix(path, ".json") {
		err = loadJSON(cfg, path)
	} else {
		err = loadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	cfg.clamp()
	return cfg, cfg.Validate()
}

func loadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the TOML path with restrictive
// permissions.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(buf.String()), 0o600)
}

// =============================================================================
// ENV OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies DOCUFLOW_* environment variables over the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DOCUFLOW_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("DOCUFLOW_LOCATION_ID"); v != "" {
		c.LocationID = v
	}
	if v := os.Getenv("DOCUFLOW_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.TimeoutSecs = n
		}
	}
	if v := os.Getenv("DOCUFLOW_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.API.MaxRetries = n
		}
	}
	if v := os.Getenv("DOCUFLOW_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// clamp forces out-of-range numeric settings back into valid bounds.
func (c *Config) clamp() {
	if c.API.TimeoutSecs < 10 {
		c.API.TimeoutSecs = 10
	}
	if c.API.TimeoutSecs > 60 {
		c.API.TimeoutSecs = 60
	}
	if c.API.UploadTimeoutSecs < c.API.TimeoutSecs {
		c.API.UploadTimeoutSecs = c.API.TimeoutSecs
	}
	if c.API.UploadTimeoutSecs > 60 {
		c.API.UploadTimeoutSecs = 60
	}
	if c.API.MaxRetries < 0 {
		c.API.MaxRetries = 0
	}
	if c.API.MaxRetries > 10 {
		c.API.MaxRetries = 10
	}
	if c.API.RetryBaseMs <= 0 {
		c.API.RetryBaseMs = 500
	}
	if c.Sync.DebounceMs <= 0 {
		c.Sync.DebounceMs = 500
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for coherent values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return ValidationError{Field: "api.base_url", Message: "must not be empty"}
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ValidationError{Field: "api.base_url", Message: "must be an absolute URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: "api.base_url", Message: "scheme must be http or https"}
	}
	switch c.UI.Theme {
	case "", "auto", "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be auto, dark or light"}
	}
	if c.Sync.Enabled && c.Sync.WatchDir == "" {
		return ValidationError{Field: "sync.watch_dir", Message: "required when sync is enabled"}
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the standard request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// UploadTimeout returns the upload/download timeout as a duration.
func (c *Config) UploadTimeout() time.Duration {
	return time.Duration(c.API.UploadTimeoutSecs) * time.Second
}

// RetryBase returns the base backoff delay as a duration.
func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.API.RetryBaseMs) * time.Millisecond
}

// CachePath returns the resolved cache database path.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global config so tests can reload.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
}

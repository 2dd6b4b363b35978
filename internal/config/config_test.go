// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL == "" {
		t.Error("default base URL must not be empty")
	}
	if cfg.API.TimeoutSecs < 10 || cfg.API.TimeoutSecs > 60 {
		t.Errorf("default timeout %d out of 10-60 range", cfg.API.TimeoutSecs)
	}
	if cfg.API.MaxRetries <= 0 {
		t.Error("default max retries must be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1"
location_id = "loc-42"

[api]
base_url = "https://backend.example.com"
timeout_secs = 20
max_retries = 5
retry_base_ms = 250

[ui]
theme = "dark"
markdown = true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.BaseURL != "https://backend.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.LocationID != "loc-42" {
		t.Errorf("LocationID = %q", cfg.LocationID)
	}
	if cfg.Timeout() != 20*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout())
	}
	if cfg.RetryBase() != 250*time.Millisecond {
		t.Errorf("RetryBase = %v", cfg.RetryBase())
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromPathJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"api":{"base_url":"http://localhost:8000","timeout_secs":15}}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
}

func TestClampTimeouts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[api]
base_url = "https://x.example"
timeout_secs = 5
upload_timeout_secs = 300
max_retries = 99
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.TimeoutSecs != 10 {
		t.Errorf("TimeoutSecs = %d, want clamped 10", cfg.API.TimeoutSecs)
	}
	if cfg.API.UploadTimeoutSecs != 60 {
		t.Errorf("UploadTimeoutSecs = %d, want clamped 60", cfg.API.UploadTimeoutSecs)
	}
	if cfg.API.MaxRetries != 10 {
		t.Errorf("MaxRetries = %d, want clamped 10", cfg.API.MaxRetries)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("relative base URL must fail validation")
	}

	cfg = Default()
	cfg.API.BaseURL = "ftp://host"
	if err := cfg.Validate(); err == nil {
		t.Error("non-http scheme must fail validation")
	}

	cfg = Default()
	cfg.UI.Theme = "neon"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown theme must fail validation")
	}

	cfg = Default()
	cfg.Sync.Enabled = true
	cfg.Sync.WatchDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("enabled sync without watch dir must fail validation")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOCUFLOW_API_URL", "https://override.example")
	t.Setenv("DOCUFLOW_LOCATION_ID", "loc-env")
	t.Setenv("DOCUFLOW_TIMEOUT_SECS", "25")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.BaseURL != "https://override.example" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.LocationID != "loc-env" {
		t.Errorf("LocationID = %q", cfg.LocationID)
	}
	if cfg.API.TimeoutSecs != 25 {
		t.Errorf("TimeoutSecs = %d", cfg.API.TimeoutSecs)
	}
}

// Copyright (c) 2025 Docuflow Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// status_cmd.go - Status and configuration command handlers.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docuflow/docuflow-cli/internal/config"
)

// =============================================================================
// STATUS
// =============================================================================

// statusReport is the --json shape of "docuflow status".
type statusReport struct {
	LoggedIn      bool      `json:"logged_in"`
	DemoAccount   bool      `json:"demo_account,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role,omitempty"`
	TokenExpires  time.Time `json:"token_expires,omitempty"`
	PendingVerify string    `json:"pending_verify,omitempty"`
	BaseURL       string    `json:"base_url"`
	LocationID    string    `json:"location_id,omitempty"`
	CacheEnabled  bool      `json:"cache_enabled"`
	CachedChats   int       `json:"cached_chats,omitempty"`
	CachedMsgs    int       `json:"cached_messages,omitempty"`
}

// HandleStatus handles "docuflow status".
func HandleStatus(args Args) error {
	app, err := NewApp(args)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := app.Context()
	defer cancel()

	// Best effort; status must render even when the backend is down.
	_ = app.Session.Restore(ctx)
	st := app.Session.GetStatus()

	report := statusReport{
		LoggedIn:      st.Authenticated,
		DemoAccount:   st.Local,
		Email:         st.Email,
		Role:          string(st.Role),
		TokenExpires:  st.ExpiresAt,
		PendingVerify: st.PendingVerify,
		BaseURL:       app.Client.BaseURL(),
		LocationID:    app.Config.LocationID,
		CacheEnabled:  app.Cache != nil,
	}
	if app.Cache != nil {
		if chats, msgs, err := app.Cache.Stats(ctx); err == nil {
			report.CachedChats = chats
			report.CachedMsgs = msgs
		}
	}

	if args.JSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(TitleStyle.Render("docuflow status"))
	if report.LoggedIn {
		account := report.Email
		if report.DemoAccount {
			account += " (demo)"
		}
		fmt.Println(RenderLabel("Account:", account))
		fmt.Println(RenderLabel("Role:", report.Role))
		if !report.TokenExpires.IsZero() {
			fmt.Println(RenderLabel("Token expires:", report.TokenExpires.Local().Format(time.RFC1123)))
		}
	} else {
		fmt.Println(RenderLabel("Account:", "not logged in"))
	}
	if report.PendingVerify != "" {
		fmt.Println(WarningStyle.Render("Pending verification: " + report.PendingVerify))
	}
	fmt.Println(RenderLabel("Backend:", report.BaseURL))
	if report.LocationID != "" {
		fmt.Println(RenderLabel("Location:", report.LocationID))
	}
	if report.CacheEnabled {
		fmt.Println(RenderLabel("Cache:", fmt.Sprintf("%d chat(s), %d message(s)", report.CachedChats, report.CachedMsgs)))
	} else {
		fmt.Println(RenderLabel("Cache:", "disabled"))
	}
	return nil
}

// =============================================================================
// CONFIG
// =============================================================================

// HandleConfig handles "docuflow config [show|set|path]".
func HandleConfig(args Args) error {
	parser := NewArgParser(args.Raw)

	switch parser.Subcommand() {
	case "", "show":
		return printConfig(args)

	case "path":
		path, err := config.PathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "set":
		key := parser.Positional(1)
		value := strings.Join(parser.PositionalFrom(2), " ")
		if key == "" || value == "" {
			return errors.New("usage: docuflow config set <key> <value>")
		}
		cfg := config.Global()
		if err := setConfigKey(cfg, key, value); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Println(SuccessStyle.Render(fmt.Sprintf("Set %s = %s", key, value)))
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %s", parser.Subcommand())
	}
}

func printConfig(args Args) error {
	cfg := config.Global()

	if args.JSON {
		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(TitleStyle.Render("docuflow config"))
	fmt.Println(RenderLabel("api.base_url", cfg.API.BaseURL))
	fmt.Println(RenderLabel("api.timeout_secs", strconv.Itoa(cfg.API.TimeoutSecs)))
	fmt.Println(RenderLabel("api.max_retries", strconv.Itoa(cfg.API.MaxRetries)))
	fmt.Println(RenderLabel("location_id", cfg.LocationID))
	fmt.Println(RenderLabel("sync.enabled", strconv.FormatBool(cfg.Sync.Enabled)))
	fmt.Println(RenderLabel("sync.watch_dir", cfg.Sync.WatchDir))
	fmt.Println(RenderLabel("sync.folder_id", cfg.Sync.FolderID))
	fmt.Println(RenderLabel("cache.enabled", strconv.FormatBool(cfg.Cache.Enabled)))
	fmt.Println(RenderLabel("ui.theme", cfg.UI.Theme))
	fmt.Println(RenderLabel("ui.markdown", strconv.FormatBool(cfg.UI.Markdown)))
	return nil
}

// setConfigKey maps dotted keys from the CLI onto config fields.
func setConfigKey(cfg *config.Config, key, value string) error {
	boolVal := func() (bool, error) { return strconv.ParseBool(value) }
	intVal := func() (int, error) { return strconv.Atoi(value) }

	switch strings.ToLower(key) {
	case "api.base_url", "base_url":
		cfg.API.BaseURL = value
	case "api.timeout_secs":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.API.TimeoutSecs = v
	case "api.upload_timeout_secs":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.API.UploadTimeoutSecs = v
	case "api.max_retries":
		v, err := intVal()
		if err != nil {
			return fmt.Errorf("%s must be an integer", key)
		}
		cfg.API.MaxRetries = v
	case "location_id":
		cfg.LocationID = value
	case "sync.enabled":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Sync.Enabled = v
	case "sync.watch_dir":
		cfg.Sync.WatchDir = value
	case "sync.folder_id":
		cfg.Sync.FolderID = value
	case "sync.process_after_upload":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Sync.ProcessAfterUpload = v
	case "cache.enabled":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.Cache.Enabled = v
	case "cache.path":
		cfg.Cache.Path = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.markdown":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.Markdown = v
	case "ui.timestamps":
		v, err := boolVal()
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		cfg.UI.Timestamps = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

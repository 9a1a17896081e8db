package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// requiredEnvs returns the minimum env vars needed for LoadEnvConfig to succeed.
func requiredEnvs() map[string]string {
	return map[string]string{
		"STALECHECK_ADMIN_TOKEN": "admin-secret",
		"STALECHECK_ENTRY_URL":   "https://app.example.com/index.html",
	}
}

func TestLoadEnvConfig_Defaults(t *testing.T) {
	setEnvs(t, requiredEnvs())

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertEqual(t, "StateDir", cfg.StateDir, "/var/lib/stalecheck")
	assertEqual(t, "ListenAddress", cfg.ListenAddress, "0.0.0.0")
	assertEqual(t, "Port", cfg.Port, 2261)
	assertEqual(t, "APIMaxBodyBytes", cfg.APIMaxBodyBytes, 64<<10)
	assertEqual(t, "AllowedOriginsLength", len(cfg.AllowedOrigins), 1)
	assertEqual(t, "AllowedOrigins[0]", cfg.AllowedOrigins[0], "https://app.example.com")

	assertEqual(t, "EntryURL", cfg.EntryURL, "https://app.example.com/index.html")
	assertEqual(t, "ProbeURL", cfg.ProbeURL, "")
	assertEqual(t, "PollInterval", cfg.PollInterval, 30*time.Minute)
	assertEqual(t, "PollSchedule", cfg.PollSchedule, "")
	assertEqual(t, "InitialDelay", cfg.InitialDelay, 5*time.Second)
	assertEqual(t, "CheckTimeout", cfg.CheckTimeout, 15*time.Second)
	assertEqual(t, "ResourceErrorDebounce", cfg.ResourceErrorDebounce, time.Second)
	assertEqual(t, "DetectResourceErrors", cfg.DetectResourceErrors, true)
	assertEqual(t, "SkipInDevelopment", cfg.SkipInDevelopment, true)
	assertEqual(t, "Development", cfg.Development, false)

	assertEqual(t, "ValidatorHeader", cfg.ValidatorHeader, "ETag")
	assertEqual(t, "TimestampHeader", cfg.TimestampHeader, "Last-Modified")
	assertEqual(t, "UserAgent", cfg.UserAgent, "stalecheck")

	if cfg.PollScheduleSpec() != nil {
		t.Fatal("expected no cron schedule by default")
	}
}

func TestLoadEnvConfig_EmptyStateDirIsEphemeral(t *testing.T) {
	setEnvs(t, requiredEnvs())
	t.Setenv("STALECHECK_STATE_DIR", "  ")

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "StateDir", cfg.StateDir, "")
}

func TestLoadEnvConfig_EnvOverrides(t *testing.T) {
	setEnvs(t, requiredEnvs())
	setEnvs(t, map[string]string{
		"STALECHECK_STATE_DIR":               "/tmp/state",
		"STALECHECK_LISTEN_ADDRESS":          "127.0.0.1",
		"STALECHECK_PORT":                    "8080",
		"STALECHECK_ALLOWED_ORIGINS":         `["https://a.example.com","http://localhost:3000"]`,
		"STALECHECK_PROBE_URL":               "https://status.example.com/",
		"STALECHECK_POLL_INTERVAL":           "5m",
		"STALECHECK_POLL_SCHEDULE":           "*/10 * * * *",
		"STALECHECK_INITIAL_DELAY":           "1s",
		"STALECHECK_DETECT_RESOURCE_ERRORS":  "false",
		"STALECHECK_SKIP_IN_DEVELOPMENT":     "0",
		"STALECHECK_DEVELOPMENT":             "true",
		"STALECHECK_VALIDATOR_HEADER":        "X-Build-Id",
		"STALECHECK_RELOAD_COMMAND":          "systemctl restart kiosk",
		"STALECHECK_RESOURCE_ERROR_DEBOUNCE": "250ms",
	})

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertEqual(t, "StateDir", cfg.StateDir, "/tmp/state")
	assertEqual(t, "ListenAddress", cfg.ListenAddress, "127.0.0.1")
	assertEqual(t, "Port", cfg.Port, 8080)
	assertEqual(t, "AllowedOriginsLength", len(cfg.AllowedOrigins), 2)
	assertEqual(t, "AllowedOrigins[1]", cfg.AllowedOrigins[1], "http://localhost:3000")
	assertEqual(t, "ProbeURL", cfg.ProbeURL, "https://status.example.com/")
	assertEqual(t, "PollInterval", cfg.PollInterval, 5*time.Minute)
	assertEqual(t, "InitialDelay", cfg.InitialDelay, time.Second)
	assertEqual(t, "DetectResourceErrors", cfg.DetectResourceErrors, false)
	assertEqual(t, "SkipInDevelopment", cfg.SkipInDevelopment, false)
	assertEqual(t, "Development", cfg.Development, true)
	assertEqual(t, "ValidatorHeader", cfg.ValidatorHeader, "X-Build-Id")
	assertEqual(t, "ReloadCommand", cfg.ReloadCommand, "systemctl restart kiosk")
	assertEqual(t, "ResourceErrorDebounce", cfg.ResourceErrorDebounce, 250*time.Millisecond)

	if cfg.PollScheduleSpec() == nil {
		t.Fatal("expected cron schedule to be parsed")
	}
}

func TestLoadEnvConfig_MissingRequired(t *testing.T) {
	os.Unsetenv("STALECHECK_ADMIN_TOKEN")
	os.Unsetenv("STALECHECK_ENTRY_URL")

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error for missing required envs")
	}
	assertContains(t, err.Error(), "STALECHECK_ADMIN_TOKEN")
	assertContains(t, err.Error(), "STALECHECK_ENTRY_URL")
}

func TestLoadEnvConfig_EmptyAdminTokenAllowed(t *testing.T) {
	setEnvs(t, requiredEnvs())
	t.Setenv("STALECHECK_ADMIN_TOKEN", "")

	cfg, err := LoadEnvConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "AdminToken", cfg.AdminToken, "")
}

func TestLoadEnvConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad_int", "STALECHECK_PORT", "abc", "invalid integer"},
		{"port_range", "STALECHECK_PORT", "70000", "port must be 1-65535"},
		{"bad_duration", "STALECHECK_POLL_INTERVAL", "soon", "invalid duration"},
		{"zero_interval", "STALECHECK_POLL_INTERVAL", "0s", "STALECHECK_POLL_INTERVAL must be positive"},
		{"bad_bool", "STALECHECK_DEVELOPMENT", "maybe", "invalid boolean"},
		{"bad_cron", "STALECHECK_POLL_SCHEDULE", "every tuesday", "invalid cron expression"},
		{"relative_entry", "STALECHECK_ENTRY_URL", "/index.html", "invalid http(s) url"},
		{"ftp_entry", "STALECHECK_ENTRY_URL", "ftp://example.com/index.html", "invalid http(s) url"},
		{"bad_probe", "STALECHECK_PROBE_URL", "not a url", "STALECHECK_PROBE_URL"},
		{"bad_header", "STALECHECK_VALIDATOR_HEADER", "X Build", "invalid header name"},
		{"bad_origins_json", "STALECHECK_ALLOWED_ORIGINS", "https://a.example.com", "invalid JSON string array"},
		{"origin_with_path", "STALECHECK_ALLOWED_ORIGINS", `["https://a.example.com/app"]`, "invalid origin"},
		{"empty_listen", "STALECHECK_LISTEN_ADDRESS", "  ", "must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, requiredEnvs())
			t.Setenv(tt.key, tt.val)

			_, err := LoadEnvConfig()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
			assertContains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnvConfig_MultipleErrorsJoined(t *testing.T) {
	setEnvs(t, requiredEnvs())
	t.Setenv("STALECHECK_PORT", "0")
	t.Setenv("STALECHECK_CHECK_TIMEOUT", "0s")

	_, err := LoadEnvConfig()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	assertContains(t, msg, "config validation failed")
	assertContains(t, msg, "STALECHECK_PORT")
	assertContains(t, msg, "STALECHECK_CHECK_TIMEOUT")
}

func TestLoadPromptFile(t *testing.T) {
	cfg, err := LoadPromptFile("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.CloseOnEscape || cfg.Title != "" {
		t.Fatalf("default prompt config: got %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "prompt.yaml")
	writeFile(t, path, `
title: Update available
description: A new version is <b>ready</b>.
force_update: true
close_on_escape: false
width: 480px
style:
  border-radius: 8px
labels:
  refresh: Reload now
later_interval: 30m
refresh_fallback: 5s
`)
	cfg, err = LoadPromptFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEqual(t, "Title", cfg.Title, "Update available")
	assertEqual(t, "ForceUpdate", cfg.ForceUpdate, true)
	assertEqual(t, "CloseOnEscape", cfg.CloseOnEscape, false)
	assertEqual(t, "Width", cfg.Width, "480px")
	assertEqual(t, "Style[border-radius]", cfg.Style["border-radius"], "8px")
	assertEqual(t, "Labels.Refresh", cfg.Labels.Refresh, "Reload now")
	assertEqual(t, "Labels.Later", cfg.Labels.Later, "")
	assertEqual(t, "LaterInterval", cfg.LaterInterval, 30*time.Minute)
	assertEqual(t, "RefreshFallback", cfg.RefreshFallback, 5*time.Second)
	assertEqual(t, "TransitionDuration", cfg.TransitionDuration, time.Duration(0))
}

func TestLoadPromptFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadPromptFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	writeFile(t, unknown, "titel: typo\n")
	if _, err := LoadPromptFile(unknown); err == nil {
		t.Fatal("expected error for unknown key")
	}

	badDuration := filepath.Join(dir, "duration.yaml")
	writeFile(t, badDuration, "later_interval: ten minutes\n")
	_, err := LoadPromptFile(badDuration)
	if err == nil {
		t.Fatal("expected error for bad duration")
	}
	assertContains(t, err.Error(), "invalid duration")

	negative := filepath.Join(dir, "negative.yaml")
	writeFile(t, negative, "refresh_fallback: -1s\n")
	_, err = LoadPromptFile(negative)
	if err == nil {
		t.Fatal("expected error for negative duration")
	}
	assertContains(t, err.Error(), "refresh_fallback")

	empty := filepath.Join(dir, "empty.yaml")
	writeFile(t, empty, "")
	if _, err := LoadPromptFile(empty); err != nil {
		t.Fatalf("empty file should yield defaults: %v", err)
	}
}

func TestDuration_JSONAndYAML(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`"90s"`)); err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "Std", d.Std(), 90*time.Second)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "MarshalJSON", string(b), `"1m30s"`)
	if err := d.UnmarshalJSON([]byte(`90`)); err == nil {
		t.Fatal("expected error for non-string JSON duration")
	}
	v, err := d.MarshalYAML()
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(t, "MarshalYAML", v.(string), "1m30s")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("expected %q to contain %q", s, substr)
	}
}

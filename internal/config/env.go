// Package config handles environment-based configuration loading and the
// prompt file.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/net/http/httpguts"
)

// EnvConfig holds all environment-variable-driven settings.
type EnvConfig struct {
	// Directories. An empty StateDir keeps state in memory only.
	StateDir string

	// Network
	ListenAddress   string
	Port            int
	APIMaxBodyBytes int
	AllowedOrigins  []string

	// Detector
	EntryURL              string
	ProbeURL              string
	PollInterval          time.Duration
	PollSchedule          string
	InitialDelay          time.Duration
	CheckTimeout          time.Duration
	ResourceErrorDebounce time.Duration
	DetectResourceErrors  bool
	SkipInDevelopment     bool
	Development           bool

	// Fetcher
	ValidatorHeader string
	TimestampHeader string
	UserAgent       string

	// Host
	PromptFile    string
	ReloadCommand string

	// Auth
	AdminToken string
}

// LoadEnvConfig reads environment variables and returns a validated EnvConfig.
// Returns an error if any required variable is missing or any value is invalid.
func LoadEnvConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	var errs []string

	// --- Directories ---
	cfg.StateDir = strings.TrimSpace(envStr("STALECHECK_STATE_DIR", "/var/lib/stalecheck"))

	// --- Network ---
	cfg.ListenAddress = strings.TrimSpace(envStr("STALECHECK_LISTEN_ADDRESS", "0.0.0.0"))
	cfg.Port = envInt("STALECHECK_PORT", 2261, &errs)
	cfg.APIMaxBodyBytes = envInt("STALECHECK_API_MAX_BODY_BYTES", 64<<10, &errs)
	cfg.AllowedOrigins = envStringSlice("STALECHECK_ALLOWED_ORIGINS", nil, &errs)

	// --- Detector ---
	cfg.EntryURL = strings.TrimSpace(envStr("STALECHECK_ENTRY_URL", ""))
	cfg.ProbeURL = strings.TrimSpace(envStr("STALECHECK_PROBE_URL", ""))
	cfg.PollInterval = envDuration("STALECHECK_POLL_INTERVAL", 30*time.Minute, &errs)
	cfg.PollSchedule = strings.TrimSpace(envStr("STALECHECK_POLL_SCHEDULE", ""))
	cfg.InitialDelay = envDuration("STALECHECK_INITIAL_DELAY", 5*time.Second, &errs)
	cfg.CheckTimeout = envDuration("STALECHECK_CHECK_TIMEOUT", 15*time.Second, &errs)
	cfg.ResourceErrorDebounce = envDuration("STALECHECK_RESOURCE_ERROR_DEBOUNCE", time.Second, &errs)
	cfg.DetectResourceErrors = envBool("STALECHECK_DETECT_RESOURCE_ERRORS", true, &errs)
	cfg.SkipInDevelopment = envBool("STALECHECK_SKIP_IN_DEVELOPMENT", true, &errs)
	cfg.Development = envBool("STALECHECK_DEVELOPMENT", false, &errs)

	// --- Fetcher ---
	cfg.ValidatorHeader = strings.TrimSpace(envStr("STALECHECK_VALIDATOR_HEADER", "ETag"))
	cfg.TimestampHeader = strings.TrimSpace(envStr("STALECHECK_TIMESTAMP_HEADER", "Last-Modified"))
	cfg.UserAgent = envStr("STALECHECK_USER_AGENT", "stalecheck")

	// --- Host ---
	cfg.PromptFile = strings.TrimSpace(envStr("STALECHECK_PROMPT_FILE", ""))
	cfg.ReloadCommand = strings.TrimSpace(envStr("STALECHECK_RELOAD_COMMAND", ""))

	// --- Auth (must be defined; empty means auth disabled) ---
	adminToken, hasAdminToken := os.LookupEnv("STALECHECK_ADMIN_TOKEN")
	cfg.AdminToken = adminToken

	// --- Validation ---
	if !hasAdminToken {
		errs = append(errs, "STALECHECK_ADMIN_TOKEN must be defined (can be empty)")
	}
	if cfg.ListenAddress == "" {
		errs = append(errs, "STALECHECK_LISTEN_ADDRESS must not be empty")
	}
	validatePort("STALECHECK_PORT", cfg.Port, &errs)
	validatePositive("STALECHECK_API_MAX_BODY_BYTES", cfg.APIMaxBodyBytes, &errs)
	for _, origin := range cfg.AllowedOrigins {
		if !isOrigin(origin) {
			errs = append(errs, fmt.Sprintf("STALECHECK_ALLOWED_ORIGINS: invalid origin %q (want scheme://host[:port])", origin))
		}
	}

	if cfg.EntryURL == "" {
		errs = append(errs, "STALECHECK_ENTRY_URL must be defined")
	} else if !isAbsoluteHTTPURL(cfg.EntryURL) {
		errs = append(errs, fmt.Sprintf("STALECHECK_ENTRY_URL: invalid http(s) url %q", cfg.EntryURL))
	}
	if cfg.ProbeURL != "" && !isAbsoluteHTTPURL(cfg.ProbeURL) {
		errs = append(errs, fmt.Sprintf("STALECHECK_PROBE_URL: invalid http(s) url %q", cfg.ProbeURL))
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, "STALECHECK_POLL_INTERVAL must be positive")
	}
	if cfg.PollSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PollSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("STALECHECK_POLL_SCHEDULE: invalid cron expression %q: %v", cfg.PollSchedule, err))
		}
	}
	if cfg.InitialDelay <= 0 {
		errs = append(errs, "STALECHECK_INITIAL_DELAY must be positive")
	}
	if cfg.CheckTimeout <= 0 {
		errs = append(errs, "STALECHECK_CHECK_TIMEOUT must be positive")
	}
	if cfg.ResourceErrorDebounce <= 0 {
		errs = append(errs, "STALECHECK_RESOURCE_ERROR_DEBOUNCE must be positive")
	}
	validateHeaderName("STALECHECK_VALIDATOR_HEADER", cfg.ValidatorHeader, &errs)
	validateHeaderName("STALECHECK_TIMESTAMP_HEADER", cfg.TimestampHeader, &errs)
	if !httpguts.ValidHeaderFieldValue(cfg.UserAgent) {
		errs = append(errs, "STALECHECK_USER_AGENT: invalid header value")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{originOf(cfg.EntryURL)}
	}
	return cfg, nil
}

// PollScheduleSpec parses PollSchedule. It returns nil when no schedule is
// configured.
func (c *EnvConfig) PollScheduleSpec() cron.Schedule {
	if c.PollSchedule == "" {
		return nil
	}
	schedule, err := cron.ParseStandard(c.PollSchedule)
	if err != nil {
		return nil
	}
	return schedule
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func envBool(key string, defaultVal bool, errs *[]string) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration, errs *[]string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return d
}

func envStringSlice(key string, defaultVal []string, errs *[]string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	if err := json.Unmarshal([]byte(v), &out); err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid JSON string array %q", key, v))
		return defaultVal
	}
	if out == nil {
		return []string{}
	}
	return out
}

func validatePort(name string, value int, errs *[]string) {
	if value < 1 || value > 65535 {
		*errs = append(*errs, fmt.Sprintf("%s: port must be 1-65535, got %d", name, value))
	}
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}

func validateHeaderName(name, value string, errs *[]string) {
	if !httpguts.ValidHeaderFieldName(value) {
		*errs = append(*errs, fmt.Sprintf("%s: invalid header name %q", name, value))
	}
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func isOrigin(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || !isAbsoluteHTTPURL(raw) {
		return false
	}
	return (u.Path == "" || u.Path == "/") && u.RawQuery == "" && u.Fragment == "" && u.User == nil
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

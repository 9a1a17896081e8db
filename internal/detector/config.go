package detector

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Resinat/stalecheck/internal/netutil"
)

// DevelopmentEnv is the runtime development flag consulted by the default
// environment predicate.
const DevelopmentEnv = "STALECHECK_DEVELOPMENT"

const (
	DefaultPollInterval          = 30 * time.Minute
	DefaultInitialDelay          = 5 * time.Second
	DefaultResourceErrorDebounce = time.Second
	DefaultCheckTimeout          = 15 * time.Second
)

// Config is immutable once passed to New. Start from DefaultConfig; zero
// durations are replaced by their defaults.
type Config struct {
	// EntryURL is the entry document whose headers fingerprint a deployment.
	EntryURL string
	// ProbeURL is the connectivity probe target. Defaults to the root of EntryURL.
	ProbeURL string

	PollInterval time.Duration
	// PollSchedule, when set, replaces the fixed PollInterval cadence.
	PollSchedule cron.Schedule
	// InitialDelay keeps the first poll away from the initial page load.
	InitialDelay time.Duration

	SkipInDevelopment bool
	// IsDevelopment reports whether the runtime is a development environment.
	// Defaults to DefaultIsDevelopment(EntryURL).
	IsDevelopment func() bool

	DetectResourceErrors  bool
	ResourceErrorDebounce time.Duration
	CheckTimeout          time.Duration
}

// DefaultConfig returns the default detector configuration for entryURL.
func DefaultConfig(entryURL string) Config {
	return Config{
		EntryURL:              entryURL,
		PollInterval:          DefaultPollInterval,
		InitialDelay:          DefaultInitialDelay,
		SkipInDevelopment:     true,
		DetectResourceErrors:  true,
		ResourceErrorDebounce: DefaultResourceErrorDebounce,
		CheckTimeout:          DefaultCheckTimeout,
	}
}

// DefaultIsDevelopment treats loopback hosts, or a truthy DevelopmentEnv, as
// development.
func DefaultIsDevelopment(entryURL string) func() bool {
	return func() bool {
		if netutil.IsLoopbackHost(entryURL) {
			return true
		}
		on, err := strconv.ParseBool(os.Getenv(DevelopmentEnv))
		return err == nil && on
	}
}

func (c Config) withDefaults() (Config, error) {
	u, err := url.Parse(c.EntryURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return c, fmt.Errorf("detector: invalid entry url %q", c.EntryURL)
	}
	if c.ProbeURL == "" {
		c.ProbeURL = (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.ResourceErrorDebounce <= 0 {
		c.ResourceErrorDebounce = DefaultResourceErrorDebounce
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = DefaultCheckTimeout
	}
	if c.IsDevelopment == nil {
		c.IsDevelopment = DefaultIsDevelopment(c.EntryURL)
	}
	return c, nil
}

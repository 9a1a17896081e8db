package prompt

import "time"

const (
	DefaultLaterInterval      = 10 * time.Minute
	DefaultRefreshFallback    = 3 * time.Second
	DefaultTransitionDuration = 300 * time.Millisecond
)

// Labels are the button captions.
type Labels struct {
	Refresh    string `json:"refresh" yaml:"refresh"`
	Later      string `json:"later" yaml:"later"`
	Refreshing string `json:"refreshing" yaml:"refreshing"`
	Close      string `json:"close" yaml:"close"`
}

// DefaultLabels returns the built-in captions.
func DefaultLabels() Labels {
	return Labels{
		Refresh:    "Refresh",
		Later:      "Later",
		Refreshing: "Refreshing...",
		Close:      "Close",
	}
}

func (l Labels) withDefaults() Labels {
	def := DefaultLabels()
	if l.Refresh == "" {
		l.Refresh = def.Refresh
	}
	if l.Later == "" {
		l.Later = def.Later
	}
	if l.Refreshing == "" {
		l.Refreshing = def.Refreshing
	}
	if l.Close == "" {
		l.Close = def.Close
	}
	return l
}

// Config is immutable once passed to New.
type Config struct {
	// Title is the dialog's accessible label. The visible heading always
	// comes from the update reason.
	Title string
	// Description is body text shown under the heading. Limited HTML is
	// allowed and sanitized before rendering.
	Description string
	// ForceUpdate makes every prompt mandatory: no later button, no dismissal.
	ForceUpdate         bool
	CloseOnClickOutside bool
	CloseOnEscape       bool

	Width     string
	ClassName string
	Style     map[string]string
	Labels    Labels

	// LaterInterval suppresses non resource-error prompts after "later".
	LaterInterval time.Duration
	// RefreshFallback forces a reload when OnRefresh has not completed one.
	RefreshFallback    time.Duration
	TransitionDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.LaterInterval <= 0 {
		c.LaterInterval = DefaultLaterInterval
	}
	if c.RefreshFallback <= 0 {
		c.RefreshFallback = DefaultRefreshFallback
	}
	if c.TransitionDuration <= 0 {
		c.TransitionDuration = DefaultTransitionDuration
	}
	c.Labels = c.Labels.withDefaults()
	return c
}

// Events are optional user-action callbacks. They run on the caller's
// goroutine, outside the controller's lock.
type Events struct {
	OnRefresh func()
	OnLater   func()
	OnClose   func()
}

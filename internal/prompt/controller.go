// Package prompt owns the reload prompt: its visibility, the content chosen
// for an update reason, and the refresh/later/close user actions.
package prompt

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Resinat/stalecheck/internal/model"
)

// Phase is the structural state of the dialog.
type Phase string

const (
	PhaseHidden Phase = "hidden"
	PhaseShown  Phase = "shown"
	// PhaseHiding lasts for the fade-out transition.
	PhaseHiding Phase = "hiding"
)

// Reloader forces a full reload of the host page.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Surface renders the dialog. Calls are made with the controller's lock held
// and must not call back into the controller.
type Surface interface {
	Mount(v View)
	Render(v View)
	Show()
	BeginHide()
	Hide()
	Unmount()
}

// View is the rendered state of the prompt.
type View struct {
	Content

	Visible    bool               `json:"visible"`
	Phase      Phase              `json:"phase"`
	Reason     model.UpdateReason `json:"reason,omitempty"`
	Label      string             `json:"label"`
	Body       string             `json:"description,omitempty"`
	Mandatory  bool               `json:"mandatory"`
	ShowLater  bool               `json:"show_later"`
	Refreshing bool               `json:"refreshing"`
	Labels     Labels             `json:"labels"`
	Width      string             `json:"width,omitempty"`
	ClassName  string             `json:"class_name,omitempty"`
	Style      map[string]string  `json:"style,omitempty"`
}

// Controller is safe for concurrent use.
type Controller struct {
	cfg      Config
	events   Events
	surface  Surface
	reloader Reloader

	mu              sync.Mutex
	destroyed       bool
	view            View
	lastDismissedAt time.Time
	hideTimer       *time.Timer
	fallbackTimer   *time.Timer

	now func() time.Time
}

// New mounts a hidden prompt on surface. reloader backs the refresh
// fallback and may be nil.
func New(cfg Config, events Events, surface Surface, reloader Reloader) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:      cfg,
		events:   events,
		surface:  surface,
		reloader: reloader,
		now:      time.Now,
	}
	c.view = c.baseView()
	c.view.Content = ContentFor(model.ReasonUnknown)
	if c.surface != nil {
		c.surface.Mount(c.view)
	}
	return c
}

func (c *Controller) baseView() View {
	return View{
		Phase:     PhaseHidden,
		Label:     c.cfg.Title,
		Body:      c.cfg.Description,
		Labels:    c.cfg.Labels,
		Width:     c.cfg.Width,
		ClassName: c.cfg.ClassName,
		Style:     c.cfg.Style,
	}
}

// Show displays the prompt for reason. Within LaterInterval of a "later"
// choice the call is ignored unless reason is resource-error. The later
// button is omitted when forceUpdate is set or reason is resource-error.
func (c *Controller) Show(reason model.UpdateReason, forceUpdate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	if !reason.IsValid() {
		reason = model.ReasonUnknown
	}
	if reason != model.ReasonResourceError && !c.lastDismissedAt.IsZero() &&
		c.now().Sub(c.lastDismissedAt) < c.cfg.LaterInterval {
		log.Printf("[prompt] %s prompt suppressed after later", reason)
		return
	}

	c.stopTimersLocked()
	mandatory := forceUpdate || c.cfg.ForceUpdate || reason == model.ReasonResourceError

	v := c.baseView()
	v.Visible = true
	v.Phase = PhaseShown
	v.Reason = reason
	v.Content = ContentFor(reason)
	if v.Label == "" {
		v.Label = v.Heading
	}
	v.Mandatory = mandatory
	v.ShowLater = !mandatory
	c.view = v

	if c.surface != nil {
		c.surface.Render(v)
		c.surface.Show()
	}
}

// Hide starts the fade-out and hides the dialog structurally once the
// transition has elapsed. OnClose runs before Hide returns.
func (c *Controller) Hide() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.stopTimersLocked()
	wasShown := c.view.Phase != PhaseHidden
	c.view.Visible = false
	c.view.Refreshing = false
	if wasShown {
		c.view.Phase = PhaseHiding
		if c.surface != nil {
			c.surface.BeginHide()
		}
		c.hideTimer = time.AfterFunc(c.cfg.TransitionDuration, c.finishHide)
	}
	onClose := c.events.OnClose
	c.mu.Unlock()

	safeCall("close", onClose)
}

func (c *Controller) finishHide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || c.view.Visible {
		return
	}
	c.hideTimer = nil
	c.view.Phase = PhaseHidden
	if c.surface != nil {
		c.surface.Hide()
	}
}

// HandleRefresh marks the prompt as refreshing and invokes OnRefresh. If the
// prompt is still refreshing after RefreshFallback, a reload is forced. With
// no OnRefresh handler the reload is forced immediately. It reports whether
// the action was taken.
func (c *Controller) HandleRefresh() bool {
	c.mu.Lock()
	if c.destroyed || c.view.Refreshing {
		c.mu.Unlock()
		return false
	}
	c.view.Refreshing = true
	if c.surface != nil {
		c.surface.Render(c.view)
	}
	onRefresh := c.events.OnRefresh
	if onRefresh != nil {
		c.fallbackTimer = time.AfterFunc(c.cfg.RefreshFallback, c.refreshFallback)
	}
	c.mu.Unlock()

	if onRefresh == nil {
		c.forceReload()
		return true
	}
	safeCall("refresh", onRefresh)
	return true
}

func (c *Controller) refreshFallback() {
	c.mu.Lock()
	if c.destroyed || !c.view.Refreshing {
		c.mu.Unlock()
		return
	}
	c.fallbackTimer = nil
	c.mu.Unlock()

	log.Printf("[prompt] refresh did not complete within %s, forcing reload", c.cfg.RefreshFallback)
	c.forceReload()
}

func (c *Controller) forceReload() {
	if c.reloader == nil {
		log.Printf("[prompt] no reloader configured, cannot force reload")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.reloader.Reload(ctx); err != nil {
		log.Printf("[prompt] forced reload failed: %v", err)
	}
}

// HandleLater records the dismissal time, hides the prompt and invokes
// OnLater. It is ignored while a mandatory prompt is shown.
func (c *Controller) HandleLater() bool {
	c.mu.Lock()
	if c.destroyed || (c.view.Visible && !c.view.ShowLater) {
		c.mu.Unlock()
		return false
	}
	c.lastDismissedAt = c.now()
	onLater := c.events.OnLater
	c.mu.Unlock()

	c.Hide()
	safeCall("later", onLater)
	return true
}

// HandleEscape dismisses a visible, non-mandatory prompt when CloseOnEscape
// is set.
func (c *Controller) HandleEscape() bool {
	return c.dismiss(c.cfg.CloseOnEscape)
}

// HandleClickOutside dismisses a visible, non-mandatory prompt when
// CloseOnClickOutside is set.
func (c *Controller) HandleClickOutside() bool {
	return c.dismiss(c.cfg.CloseOnClickOutside)
}

func (c *Controller) dismiss(enabled bool) bool {
	if !enabled {
		return false
	}
	c.mu.Lock()
	ok := !c.destroyed && c.view.Visible && !c.view.Mandatory
	c.mu.Unlock()
	if ok {
		c.Hide()
	}
	return ok
}

// IsNotificationVisible reports whether the prompt is shown.
func (c *Controller) IsNotificationVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Visible
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Destroy unmounts the surface. The controller is not reusable afterwards.
// Idempotent.
func (c *Controller) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.stopTimersLocked()
	c.view.Visible = false
	c.view.Refreshing = false
	c.view.Phase = PhaseHidden
	if c.surface != nil {
		c.surface.Unmount()
	}
}

func (c *Controller) stopTimersLocked() {
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
	if c.fallbackTimer != nil {
		c.fallbackTimer.Stop()
		c.fallbackTimer = nil
	}
}

func safeCall(kind string, fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[prompt] %s handler panicked: %v", kind, r)
		}
	}()
	fn()
}

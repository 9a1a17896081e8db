// Package detector polls a deployed application's entry document and reports
// when its deployment fingerprint changes.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Resinat/stalecheck/internal/model"
)

// Detector owns the polling lifecycle, environment gating, fingerprint
// persistence and failure fallback.
//
// When the environment is development and SkipInDevelopment is set, the
// detector installs nothing, schedules nothing and never touches storage;
// every entry point re-checks that gate.
type Detector struct {
	cfg  Config
	host Host

	// checking is the in-flight flag: at most one check body runs at a time.
	checking atomic.Bool

	mu                 sync.Mutex
	development        bool
	destroyed          bool
	listenersInstalled bool
	unsubscribe        []func()
	cron               *cron.Cron
	initialTimer       *time.Timer
	debounceTimer      *time.Timer
	pendingElement     *model.ElementRef
	lastVisible        bool

	nextID                 CallbackID
	updateCallbacks        []updateEntry
	resourceErrorCallbacks []resourceErrorEntry

	statsMu sync.Mutex
	stats   Status

	now func() time.Time
}

// New creates a detector. It installs nothing and schedules nothing until
// Start is called, so callbacks registered in between observe the initial
// checks.
func New(cfg Config, host Host) (*Detector, error) {
	if host.Fetcher == nil {
		return nil, errors.New("detector: host fetcher is required")
	}
	if host.Store == nil {
		return nil, errors.New("detector: host store is required")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:         cfg,
		host:        host,
		lastVisible: true,
		now:         time.Now,
	}
	d.development = cfg.IsDevelopment()
	return d, nil
}

// Start installs host listeners, records the initial fingerprint when none
// is persisted (using ctx), and schedules polling. It does nothing when the
// development gate applies or after Destroy. Calling it again is harmless.
func (d *Detector) Start(ctx context.Context) {
	if d.skipped() {
		if d.IsDevelopment() {
			log.Printf("[detector] development environment detected, version checks disabled")
		}
		return
	}
	d.start(ctx)
}

// start runs the initialization sequence: listeners, initial fingerprint,
// polling. Each step is idempotent.
func (d *Detector) start(ctx context.Context) {
	d.installListeners()
	d.recordInitialFingerprint(ctx)
	d.startPolling()
}

// skipped reports whether the detector must do nothing.
func (d *Detector) skipped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed || (d.development && d.cfg.SkipInDevelopment)
}

// recordInitialFingerprint persists the current fingerprint when nothing is
// stored, so a first visit is never reported as an update.
func (d *Detector) recordInitialFingerprint(ctx context.Context) {
	_, found, err := d.host.Store.Load()
	if err != nil {
		log.Printf("[detector] unreadable persisted fingerprint, re-recording: %v", err)
		found = false
	}
	if found {
		return
	}

	ctx, cancel := d.checkContext(ctx)
	defer cancel()
	fp, err := d.host.Fetcher.FetchFingerprint(ctx, d.cfg.EntryURL)
	if err != nil {
		log.Printf("[detector] initial fingerprint fetch failed: %v", err)
		return
	}
	if fp.IsEmpty() {
		log.Printf("[detector] %s exposes no validator headers, changes cannot be detected", d.cfg.EntryURL)
		return
	}
	if err := d.host.Store.Save(fp); err != nil {
		log.Printf("[detector] save initial fingerprint failed: %v", err)
		return
	}
	log.Printf("[detector] recorded initial fingerprint id=%s", fp.ID())
}

func (d *Detector) startPolling() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cron != nil || d.destroyed {
		return
	}

	d.initialTimer = time.AfterFunc(d.cfg.InitialDelay, d.runScheduledCheck)

	schedule := d.cfg.PollSchedule
	if schedule == nil {
		schedule = cron.Every(d.cfg.PollInterval)
	}
	c := cron.New()
	c.Schedule(schedule, cron.FuncJob(d.runScheduledCheck))
	c.Start()
	d.cron = c
}

// stopPollingLocked cancels the initial and recurring timers. An in-flight
// check is not aborted. Caller holds d.mu.
func (d *Detector) stopPollingLocked() {
	if d.initialTimer != nil {
		d.initialTimer.Stop()
		d.initialTimer = nil
	}
	if d.cron != nil {
		d.cron.Stop()
		d.cron = nil
	}
}

// runScheduledCheck is bounded by CheckTimeout only; Destroy does not abort a
// check that has already started.
func (d *Detector) runScheduledCheck() {
	ctx, cancel := d.checkContext(context.Background())
	defer cancel()
	d.CheckForUpdate(ctx)
}

func (d *Detector) checkContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d.cfg.CheckTimeout)
}

// StopVersionCheck cancels scheduled polling. Safe to call when not running.
func (d *Detector) StopVersionCheck() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopPollingLocked()
}

// Polling reports whether scheduled polling is active.
func (d *Detector) Polling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cron != nil
}

// SetDevelopmentMode overrides the environment predicate. Enabling it stops
// scheduled checks immediately; disabling it re-runs initialization, which
// never installs a listener twice.
func (d *Detector) SetDevelopmentMode(enabled bool) {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.development = enabled
	if enabled {
		d.stopPollingLocked()
		d.mu.Unlock()
		log.Printf("[detector] development mode enabled, version checks stopped")
		return
	}
	d.mu.Unlock()

	log.Printf("[detector] development mode disabled, version checks started")
	ctx, cancel := d.checkContext(context.Background())
	defer cancel()
	d.start(ctx)
}

// IsDevelopment reports the current environment classification.
func (d *Detector) IsDevelopment() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.development
}

// Reload clears offline caches when the reloader supports it, then reloads
// the host page.
func (d *Detector) Reload(ctx context.Context) error {
	if d.host.Reloader == nil {
		return ErrNoReloader
	}
	if clearer, ok := d.host.Reloader.(CacheClearer); ok {
		if err := clearer.ClearCaches(ctx); err != nil {
			log.Printf("[detector] clear caches failed: %v", err)
		}
	}
	if err := d.host.Reloader.Reload(ctx); err != nil {
		return fmt.Errorf("detector: reload: %w", err)
	}
	return nil
}

// Destroy stops polling, detaches host listeners and clears both callback
// registries. A check already in flight runs to completion. The detector is
// not reusable afterwards. Idempotent.
func (d *Detector) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	d.stopPollingLocked()
	if d.debounceTimer != nil {
		d.debounceTimer.Stop()
		d.debounceTimer = nil
	}
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	d.updateCallbacks = nil
	d.resourceErrorCallbacks = nil
	d.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
}

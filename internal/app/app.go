// Package app wires a detector to a prompt controller.
package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Resinat/stalecheck/internal/detector"
	"github.com/Resinat/stalecheck/internal/model"
	"github.com/Resinat/stalecheck/internal/prompt"
)

// refreshTimeout bounds the reload started from the refresh button.
const refreshTimeout = 10 * time.Second

// Options configure New. Detector and DetectorHost follow detector.New;
// Prompt, PromptEvents and Surface follow prompt.New.
type Options struct {
	Detector     detector.Config
	DetectorHost detector.Host

	Prompt  prompt.Config
	Surface prompt.Surface
	// PromptEvents are invoked after the built-in wiring. OnRefresh, when
	// set, replaces the default detector reload.
	PromptEvents prompt.Events
}

// App is a wired detector and prompt.
type App struct {
	Detector *detector.Detector
	Prompt   *prompt.Controller

	updateID        detector.CallbackID
	resourceErrorID detector.CallbackID
	closeOnce       sync.Once
}

// New constructs both components and starts the detector once its callbacks
// are registered. Update notifications show the prompt with the detector's
// reason; confirmed resource errors show a mandatory resource-error prompt.
// The prompt's refresh action reloads through the detector.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{}

	var fallback prompt.Reloader
	if opts.DetectorHost.Reloader != nil {
		fallback = opts.DetectorHost.Reloader
	}

	events := opts.PromptEvents
	if events.OnRefresh == nil {
		events.OnRefresh = func() {
			rctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			if err := a.Detector.Reload(rctx); err != nil && !errors.Is(err, detector.ErrNoReloader) {
				log.Printf("[app] reload failed: %v", err)
			}
		}
	}
	a.Prompt = prompt.New(opts.Prompt, events, opts.Surface, fallback)

	det, err := detector.New(opts.Detector, opts.DetectorHost)
	if err != nil {
		a.Prompt.Destroy()
		return nil, err
	}
	a.Detector = det

	a.updateID = det.OnUpdate(func(reason model.UpdateReason) {
		a.Prompt.Show(reason, false)
	})
	a.resourceErrorID = det.OnResourceError(func(*model.ElementRef) {
		a.Prompt.Show(model.ReasonResourceError, true)
	})
	det.Start(ctx)
	return a, nil
}

// Close tears down both components. Idempotent.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.Detector.RemoveCallback(a.updateID)
		a.Detector.RemoveCallback(a.resourceErrorID)
		a.Detector.Destroy()
		a.Prompt.Destroy()
	})
}

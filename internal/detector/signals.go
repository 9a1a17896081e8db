package detector

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/Resinat/stalecheck/internal/model"
)

// staleBuildRejection matches unhandled rejections caused by a chunk or
// module of a previous build no longer being served.
var staleBuildRejection = regexp.MustCompile(
	`(?i)(loading (css )?chunk .* failed|chunkloaderror|failed to fetch|dynamically imported module|importing a module script failed)`,
)

// IsStaleBuildSignal reports whether ev may indicate that the page runs
// against a build that is no longer deployed.
func IsStaleBuildSignal(ev model.ResourceError) bool {
	switch ev.Kind {
	case model.ResourceErrorElementLoad:
		if ev.Element == nil {
			return false
		}
		switch strings.ToLower(ev.Element.Tag) {
		case "script", "link", "img":
			return true
		}
		return false
	case model.ResourceErrorUnhandledRejection:
		return staleBuildRejection.MatchString(ev.Message)
	default:
		return false
	}
}

// installListeners subscribes to host signals once per detector.
func (d *Detector) installListeners() {
	d.mu.Lock()
	if d.listenersInstalled || d.host.Signals == nil || d.destroyed {
		d.mu.Unlock()
		return
	}
	d.listenersInstalled = true
	d.mu.Unlock()

	var unsubscribe []func()
	if d.cfg.DetectResourceErrors {
		unsubscribe = append(unsubscribe, d.host.Signals.OnResourceError(d.handleResourceError))
	}
	unsubscribe = append(unsubscribe, d.host.Signals.OnVisibilityChange(d.handleVisibility))

	d.mu.Lock()
	d.unsubscribe = append(d.unsubscribe, unsubscribe...)
	d.mu.Unlock()
}

// handleVisibility runs an immediate check on a hidden to visible transition.
func (d *Detector) handleVisibility(visible bool) {
	d.mu.Lock()
	wasVisible := d.lastVisible
	d.lastVisible = visible
	d.mu.Unlock()

	if !visible || wasVisible || d.skipped() {
		return
	}
	go d.runScheduledCheck()
}

// handleResourceError coalesces a burst of resource failures into a single
// delayed check.
func (d *Detector) handleResourceError(ev model.ResourceError) {
	if d.skipped() || !IsStaleBuildSignal(ev) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.debounceTimer != nil {
		return
	}
	d.pendingElement = ev.Element
	d.debounceTimer = time.AfterFunc(d.cfg.ResourceErrorDebounce, d.flushResourceErrors)
}

func (d *Detector) flushResourceErrors() {
	d.mu.Lock()
	element := d.pendingElement
	d.pendingElement = nil
	d.debounceTimer = nil
	d.mu.Unlock()

	ctx, cancel := d.checkContext(context.Background())
	defer cancel()
	if !d.CheckForUpdate(ctx) {
		return
	}
	if element != nil {
		log.Printf("[detector] resource load failure on <%s> %s confirmed a new deployment", element.Tag, element.URL)
	}
	d.notifyResourceError(element)
}

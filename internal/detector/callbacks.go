package detector

import (
	"log"

	"github.com/Resinat/stalecheck/internal/model"
)

// CallbackID identifies a registered callback. Zero is never issued.
type CallbackID uint64

type updateEntry struct {
	id CallbackID
	fn func(reason model.UpdateReason)
}

type resourceErrorEntry struct {
	id CallbackID
	fn func(element *model.ElementRef)
}

// OnUpdate registers fn for update notifications. A nil fn is ignored and
// yields the zero ID.
func (d *Detector) OnUpdate(fn func(reason model.UpdateReason)) CallbackID {
	if fn == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return 0
	}
	d.nextID++
	d.updateCallbacks = append(d.updateCallbacks, updateEntry{id: d.nextID, fn: fn})
	return d.nextID
}

// OnResourceError registers fn for confirmed resource-error updates. element
// is the element whose load failed, or nil for rejection-triggered checks.
func (d *Detector) OnResourceError(fn func(element *model.ElementRef)) CallbackID {
	if fn == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return 0
	}
	d.nextID++
	d.resourceErrorCallbacks = append(d.resourceErrorCallbacks, resourceErrorEntry{id: d.nextID, fn: fn})
	return d.nextID
}

// RemoveCallback removes at most one registration matching id from each
// registry.
func (d *Detector) RemoveCallback(id CallbackID) {
	if id == 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.updateCallbacks {
		if e.id == id {
			d.updateCallbacks = append(d.updateCallbacks[:i:i], d.updateCallbacks[i+1:]...)
			break
		}
	}
	for i, e := range d.resourceErrorCallbacks {
		if e.id == id {
			d.resourceErrorCallbacks = append(d.resourceErrorCallbacks[:i:i], d.resourceErrorCallbacks[i+1:]...)
			break
		}
	}
}

// notifyUpdate invokes update callbacks in registration order. A panicking
// callback is logged and does not stop the others.
func (d *Detector) notifyUpdate(reason model.UpdateReason) {
	d.mu.Lock()
	entries := append([]updateEntry(nil), d.updateCallbacks...)
	d.mu.Unlock()

	for _, e := range entries {
		safeCall("update", func() { e.fn(reason) })
	}
}

func (d *Detector) notifyResourceError(element *model.ElementRef) {
	d.mu.Lock()
	entries := append([]resourceErrorEntry(nil), d.resourceErrorCallbacks...)
	d.mu.Unlock()

	for _, e := range entries {
		safeCall("resource-error", func() { e.fn(element) })
	}
}

func safeCall(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[detector] %s callback panicked: %v", kind, r)
		}
	}()
	fn()
}

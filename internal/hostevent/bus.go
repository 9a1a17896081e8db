// Package hostevent carries page events reported by the browser shim to
// in-process subscribers.
package hostevent

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Resinat/stalecheck/internal/model"
)

// VisibilityFunc is invoked synchronously by Publish. Keep handlers
// lightweight and non-blocking; push heavy work to goroutines.
type VisibilityFunc func(visible bool)

// ResourceErrorFunc is invoked synchronously by PublishResourceError.
type ResourceErrorFunc func(ev model.ResourceError)

// Bus fans out visibility changes and resource errors. The zero value is not
// usable; call NewBus.
type Bus struct {
	visibility *xsync.Map[uint64, VisibilityFunc]
	errors     *xsync.Map[uint64, ResourceErrorFunc]

	mu      sync.Mutex
	nextID  uint64
	visible bool
}

// NewBus returns a bus whose page starts visible.
func NewBus() *Bus {
	return &Bus{
		visibility: xsync.NewMap[uint64, VisibilityFunc](),
		errors:     xsync.NewMap[uint64, ResourceErrorFunc](),
		visible:    true,
	}
}

func (b *Bus) id() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

// OnVisibilityChange subscribes fn. The returned func removes the
// subscription and may be called more than once.
func (b *Bus) OnVisibilityChange(fn func(visible bool)) func() {
	id := b.id()
	b.visibility.Store(id, fn)
	return func() { b.visibility.Delete(id) }
}

// OnResourceError subscribes fn to resource failures.
func (b *Bus) OnResourceError(fn func(ev model.ResourceError)) func() {
	id := b.id()
	b.errors.Store(id, fn)
	return func() { b.errors.Delete(id) }
}

// PublishVisibility records the page visibility and delivers it to every
// subscriber, including repeats of the current state.
func (b *Bus) PublishVisibility(visible bool) {
	b.mu.Lock()
	b.visible = visible
	b.mu.Unlock()

	b.visibility.Range(func(_ uint64, fn VisibilityFunc) bool {
		fn(visible)
		return true
	})
}

// PublishResourceError delivers ev to every subscriber.
func (b *Bus) PublishResourceError(ev model.ResourceError) {
	b.errors.Range(func(_ uint64, fn ResourceErrorFunc) bool {
		fn(ev)
		return true
	})
}

// Visible reports the last published visibility.
func (b *Bus) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	return b.visibility.Size() + b.errors.Size()
}

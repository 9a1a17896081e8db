package detector

import (
	"context"
	"errors"

	"github.com/Resinat/stalecheck/internal/model"
)

// ErrNoReloader is returned by Reload when the host supplied no Reloader.
var ErrNoReloader = errors.New("detector: no reloader configured")

// Fetcher reads the entry document's fingerprint and probes connectivity.
type Fetcher interface {
	FetchFingerprint(ctx context.Context, url string) (model.Fingerprint, error)
	Probe(ctx context.Context, url string) error
}

// FingerprintStore is the durable key-scoped storage for the last observed
// fingerprint.
type FingerprintStore interface {
	Load() (fp model.Fingerprint, found bool, err error)
	Save(fp model.Fingerprint) error
}

// Signals delivers host page events. Each subscription returns a function
// that removes it.
type Signals interface {
	OnVisibilityChange(fn func(visible bool)) (unsubscribe func())
	OnResourceError(fn func(ev model.ResourceError)) (unsubscribe func())
}

// Reloader performs a full reload of the host page.
type Reloader interface {
	Reload(ctx context.Context) error
}

// CacheClearer is implemented by reloaders that can drop offline caches
// before reloading.
type CacheClearer interface {
	ClearCaches(ctx context.Context) error
}

// HistorySink receives a record for every detected change.
type HistorySink interface {
	Append(rec model.UpdateRecord) error
}

// Host bundles the capabilities the detector needs from its environment.
// Fetcher and Store are required; the rest are optional.
type Host struct {
	Fetcher  Fetcher
	Store    FingerprintStore
	Signals  Signals
	Reloader Reloader
	History  HistorySink
}

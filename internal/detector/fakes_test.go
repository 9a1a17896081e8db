package detector

import (
	"context"
	"errors"
	"sync"

	"github.com/Resinat/stalecheck/internal/model"
	"github.com/Resinat/stalecheck/internal/store"
)

var errNetwork = errors.New("network down")

type fakeFetcher struct {
	mu         sync.Mutex
	fp         model.Fingerprint
	fetchErr   error
	probeErr   error
	fetchCalls int
	probeCalls int
	// ctxErr is the fetch context's error observed after the gate opened.
	ctxErr error

	// When gate is non-nil, FetchFingerprint signals entered and then waits
	// for gate to be closed.
	gate    chan struct{}
	entered chan struct{}
	// fetched receives after every completed fetch when non-nil.
	fetched chan struct{}
}

func (f *fakeFetcher) FetchFingerprint(ctx context.Context, _ string) (model.Fingerprint, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if gate != nil {
		if entered != nil {
			entered <- struct{}{}
		}
		<-gate
	}

	f.mu.Lock()
	f.ctxErr = ctx.Err()
	fp, err, fetched := f.fp, f.fetchErr, f.fetched
	f.mu.Unlock()
	if fetched != nil {
		defer func() { fetched <- struct{}{} }()
	}
	return fp, err
}

func (f *fakeFetcher) Probe(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	return f.probeErr
}

func (f *fakeFetcher) set(fp model.Fingerprint, fetchErr, probeErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fp, f.fetchErr, f.probeErr = fp, fetchErr, probeErr
}

func (f *fakeFetcher) calls() (fetch, probe int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.probeCalls
}

func (f *fakeFetcher) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls, f.probeCalls = 0, 0
}

type fakeSignals struct {
	mu         sync.Mutex
	visibility map[int]func(bool)
	errors     map[int]func(model.ResourceError)
	next       int
	subscribes int
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{
		visibility: make(map[int]func(bool)),
		errors:     make(map[int]func(model.ResourceError)),
	}
}

func (s *fakeSignals) OnVisibilityChange(fn func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.subscribes++
	id := s.next
	s.visibility[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.visibility, id)
	}
}

func (s *fakeSignals) OnResourceError(fn func(model.ResourceError)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.subscribes++
	id := s.next
	s.errors[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.errors, id)
	}
}

func (s *fakeSignals) emitVisibility(visible bool) {
	s.mu.Lock()
	var fns []func(bool)
	for _, fn := range s.visibility {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(visible)
	}
}

func (s *fakeSignals) emitResourceError(ev model.ResourceError) {
	s.mu.Lock()
	var fns []func(model.ResourceError)
	for _, fn := range s.errors {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *fakeSignals) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visibility) + len(s.errors)
}

type fakeHistory struct {
	mu      sync.Mutex
	records []model.UpdateRecord
}

func (h *fakeHistory) Append(rec model.UpdateRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, rec)
	return nil
}

type fakeReloader struct {
	mu    sync.Mutex
	calls []string
}

func (r *fakeReloader) Reload(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "reload")
	return nil
}

func (r *fakeReloader) ClearCaches(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "clear")
	return nil
}

// flakyStore fails Load a fixed number of times before delegating.
type flakyStore struct {
	*store.FingerprintStore
	mu        sync.Mutex
	loadFails int
}

func (s *flakyStore) Load() (model.Fingerprint, bool, error) {
	s.mu.Lock()
	if s.loadFails > 0 {
		s.loadFails--
		s.mu.Unlock()
		return model.Fingerprint{}, false, store.ErrMalformed
	}
	s.mu.Unlock()
	return s.FingerprintStore.Load()
}

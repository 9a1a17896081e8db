// Package hostctl implements the reload actions the detector and prompt
// request from the host page.
package hostctl

import (
	"context"
	"sync"
	"time"
)

// ReloadState is what the browser shim polls to learn that it should reload.
type ReloadState struct {
	Seq         uint64    `json:"seq"`
	ClearCaches bool      `json:"clear_caches"`
	RequestedAt time.Time `json:"requested_at,omitzero"`
}

// ReloadSignal records reload requests for a polling shim. Every Reload bumps
// the sequence; the shim reloads when it sees a sequence it has not seen.
type ReloadSignal struct {
	mu      sync.Mutex
	state   ReloadState
	pending bool
	waiters []chan struct{}
	now     func() time.Time
}

func NewReloadSignal() *ReloadSignal {
	return &ReloadSignal{now: time.Now}
}

// ClearCaches marks the next reload as one that must drop offline caches.
func (s *ReloadSignal) ClearCaches(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = true
	return nil
}

// Reload publishes a new reload request and wakes every waiter.
func (s *ReloadSignal) Reload(context.Context) error {
	s.mu.Lock()
	s.state.Seq++
	s.state.ClearCaches = s.pending
	s.state.RequestedAt = s.now()
	s.pending = false
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
	return nil
}

// State returns the latest reload request. Seq is zero until the first one.
func (s *ReloadSignal) State() ReloadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until a request newer than seen is published or ctx is done.
func (s *ReloadSignal) Wait(ctx context.Context, seen uint64) (ReloadState, error) {
	for {
		s.mu.Lock()
		if s.state.Seq > seen {
			st := s.state
			s.mu.Unlock()
			return st, nil
		}
		ch := make(chan struct{})
		s.waiters = append(s.waiters, ch)
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ReloadState{}, ctx.Err()
		}
	}
}

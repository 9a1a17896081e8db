package detector

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/Resinat/stalecheck/internal/model"
)

// CheckForUpdate fetches the entry document's fingerprint and compares it to
// the persisted one. It returns true when a change was detected, or when both
// the fetch and the connectivity probe failed (reported as network-error).
//
// A call made while another check is in flight returns false immediately.
// Update callbacks run before the in-flight flag is cleared, so a callback
// that calls CheckForUpdate synchronously gets false.
func (d *Detector) CheckForUpdate(ctx context.Context) bool {
	if d.skipped() {
		return false
	}
	if !d.checking.CompareAndSwap(false, true) {
		return false
	}
	defer d.checking.Store(false)

	if ctx == nil {
		ctx = context.Background()
	}
	updated, err := d.check(ctx)
	d.recordCheck(updated, err)
	return updated
}

func (d *Detector) check(ctx context.Context) (bool, error) {
	current, err := d.host.Fetcher.FetchFingerprint(ctx, d.cfg.EntryURL)
	if err != nil {
		return d.handleFetchFailure(ctx, err), err
	}

	persisted, found, err := d.host.Store.Load()
	if err != nil {
		log.Printf("[detector] unreadable persisted fingerprint, re-recording: %v", err)
		found = false
	}
	if !found {
		if !current.IsEmpty() {
			if err := d.host.Store.Save(current); err != nil {
				log.Printf("[detector] save fingerprint failed: %v", err)
			}
		}
		return false, nil
	}

	if !current.ChangedFrom(persisted) {
		return false, nil
	}

	next := current.FillFrom(persisted)
	if err := d.host.Store.Save(next); err != nil {
		log.Printf("[detector] save fingerprint failed: %v", err)
	}
	log.Printf("[detector] deployment changed: %s -> %s", persisted.ID(), next.ID())
	d.appendHistory(model.ReasonRedeploy, persisted, next)
	d.notifyUpdate(model.ReasonRedeploy)
	return true, nil
}

// handleFetchFailure distinguishes a transient failure from sustained
// connectivity loss by probing the site root.
func (d *Detector) handleFetchFailure(ctx context.Context, fetchErr error) bool {
	if ctx.Err() != nil {
		// Cancellation is not a connectivity signal.
		return false
	}
	probeErr := d.host.Fetcher.Probe(ctx, d.cfg.ProbeURL)
	if probeErr == nil {
		log.Printf("[detector] transient fetch failure: %v", fetchErr)
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	log.Printf("[detector] connectivity lost: fetch: %v; probe: %v", fetchErr, probeErr)
	d.notifyUpdate(model.ReasonNetworkError)
	return true
}

func (d *Detector) appendHistory(reason model.UpdateReason, previous, current model.Fingerprint) {
	if d.host.History == nil {
		return
	}
	rec := model.UpdateRecord{
		ID:           uuid.NewString(),
		Reason:       reason,
		Previous:     previous,
		Current:      current,
		DetectedAtNs: d.now().UnixNano(),
	}
	if err := d.host.History.Append(rec); err != nil {
		log.Printf("[detector] append history failed: %v", err)
	}
}

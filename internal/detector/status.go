package detector

import (
	"time"

	"github.com/Resinat/stalecheck/internal/model"
)

// Status is a point-in-time view of the detector.
type Status struct {
	EntryURL      string            `json:"entry_url"`
	Development   bool              `json:"development"`
	Polling       bool              `json:"polling"`
	InFlight      bool              `json:"in_flight"`
	Checks        int64             `json:"checks"`
	Detected      int64             `json:"detected"`
	Failures      int64             `json:"failures"`
	LastCheckAt   time.Time         `json:"last_check_at,omitzero"`
	LastUpdated   bool              `json:"last_updated"`
	LastError     string            `json:"last_error,omitempty"`
	Fingerprint   model.Fingerprint `json:"fingerprint"`
	FingerprintID string            `json:"fingerprint_id,omitempty"`
}

func (d *Detector) recordCheck(updated bool, err error) {
	d.statsMu.Lock()
	defer d.statsMu.Unlock()
	d.stats.Checks++
	d.stats.LastCheckAt = d.now()
	d.stats.LastUpdated = updated
	d.stats.LastError = ""
	if updated {
		d.stats.Detected++
	}
	if err != nil {
		d.stats.Failures++
		d.stats.LastError = err.Error()
	}
}

// Status returns counters and the persisted fingerprint. In the development
// gate the store is not read.
func (d *Detector) Status() Status {
	d.statsMu.Lock()
	st := d.stats
	d.statsMu.Unlock()

	st.EntryURL = d.cfg.EntryURL
	st.Development = d.IsDevelopment()
	st.Polling = d.Polling()
	st.InFlight = d.checking.Load()
	if !d.skipped() {
		if fp, found, err := d.host.Store.Load(); err == nil && found {
			st.Fingerprint = fp
			st.FingerprintID = fp.ID()
		}
	}
	return st
}

// Package model defines domain structs shared by the detector, prompt and persistence layer.
package model

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// Storage keys under which the last observed fingerprint is persisted.
const (
	StorageKeyETag         = "app_index_etag"
	StorageKeyLastModified = "app_index_last_modified"
)

// Fingerprint identifies a deployed build of the entry document by its cache
// validator and last-modification timestamp, both taken verbatim from the
// response headers. Either field may be empty.
type Fingerprint struct {
	ETag         string `json:"etag"`
	LastModified string `json:"last_modified"`
}

// IsEmpty reports whether neither header was observed.
func (f Fingerprint) IsEmpty() bool {
	return f.ETag == "" && f.LastModified == ""
}

// ChangedFrom reports whether a header present in f differs from prev.
// Comparison is exact string equality; validators are never normalized or
// parsed. A header missing from f does not count as a change.
func (f Fingerprint) ChangedFrom(prev Fingerprint) bool {
	return (f.ETag != "" && f.ETag != prev.ETag) ||
		(f.LastModified != "" && f.LastModified != prev.LastModified)
}

// FillFrom returns f with missing fields taken from prev.
func (f Fingerprint) FillFrom(prev Fingerprint) Fingerprint {
	if f.ETag == "" {
		f.ETag = prev.ETag
	}
	if f.LastModified == "" {
		f.LastModified = prev.LastModified
	}
	return f
}

// ID returns a short hex identifier of the pair, for logs and history rows.
func (f Fingerprint) ID() string {
	if f.IsEmpty() {
		return ""
	}
	h := xxh3.HashString128(f.ETag + "\x00" + f.LastModified)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], h.Lo^h.Hi)
	return hex.EncodeToString(b[:])
}

// UpdateRecord is one detected deployment change.
type UpdateRecord struct {
	ID           string       `json:"id"`
	Reason       UpdateReason `json:"reason"`
	Previous     Fingerprint  `json:"previous"`
	Current      Fingerprint  `json:"current"`
	DetectedAtNs int64        `json:"detected_at_ns"`
}

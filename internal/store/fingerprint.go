package store

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/Resinat/stalecheck/internal/model"
)

// ErrMalformed is returned when a persisted value cannot be used as a
// fingerprint field.
var ErrMalformed = errors.New("malformed persisted fingerprint")

// FingerprintStore persists the last observed fingerprint under the two
// independent storage keys.
type FingerprintStore struct {
	kv KV
}

func NewFingerprintStore(kv KV) *FingerprintStore {
	return &FingerprintStore{kv: kv}
}

// Load returns the persisted fingerprint. found is false when neither key has
// ever been written.
func (s *FingerprintStore) Load() (fp model.Fingerprint, found bool, err error) {
	etag, etagFound, err := s.get(model.StorageKeyETag)
	if err != nil {
		return model.Fingerprint{}, false, err
	}
	lastModified, lmFound, err := s.get(model.StorageKeyLastModified)
	if err != nil {
		return model.Fingerprint{}, false, err
	}
	return model.Fingerprint{ETag: etag, LastModified: lastModified}, etagFound || lmFound, nil
}

// Save writes both keys. An empty field is written as an empty string so a
// header that disappears is still recorded.
func (s *FingerprintStore) Save(fp model.Fingerprint) error {
	if err := s.kv.Set(model.StorageKeyETag, fp.ETag); err != nil {
		return err
	}
	return s.kv.Set(model.StorageKeyLastModified, fp.LastModified)
}

func (s *FingerprintStore) get(key string) (string, bool, error) {
	v, err := s.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !utf8.ValidString(v) {
		return "", false, fmt.Errorf("store: key %q: %w", key, ErrMalformed)
	}
	return v, true, nil
}

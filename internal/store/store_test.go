package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resinat/stalecheck/internal/model"
)

// helper: open a migrated state db in a temp dir.
func newTestKV(t *testing.T) (*SQLiteKV, *HistoryRepo) {
	t.Helper()
	kv, history, closer, err := Bootstrap(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { closer.Close() })
	return kv, history
}

func TestSQLiteKV_RoundTrip(t *testing.T) {
	kv, _ := newTestKV(t)

	if _, err := kv.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: got %v, want ErrNotFound", err)
	}
	if err := kv.Set("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	got, err := kv.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if got != "v2" {
		t.Fatalf("get k: got %q, want v2", got)
	}
	if err := kv.Delete("k"); err != nil {
		t.Fatal(err)
	}
	if _, err := kv.Get("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted: got %v, want ErrNotFound", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DBFilename)
	db, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("migrate run %d: %v", i+1, err)
		}
	}
}

func TestSQLiteKV_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	kv, _, closer, err := Bootstrap(dir)
	if err != nil {
		t.Fatal(err)
	}
	fps := NewFingerprintStore(kv)
	if err := fps.Save(model.Fingerprint{ETag: `"abc"`, LastModified: "Mon, 01 Jan 2026 00:00:00 GMT"}); err != nil {
		t.Fatal(err)
	}
	closer.Close()

	kv2, _, closer2, err := Bootstrap(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer closer2.Close()

	fp, found, err := NewFingerprintStore(kv2).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !found || fp.ETag != `"abc"` {
		t.Fatalf("reloaded fingerprint: got %+v found=%v", fp, found)
	}
}

func TestFingerprintStore(t *testing.T) {
	fps := NewFingerprintStore(NewMemoryKV())

	_, found, err := fps.Load()
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected no persisted fingerprint")
	}

	want := model.Fingerprint{ETag: "a", LastModified: "t1"}
	if err := fps.Save(want); err != nil {
		t.Fatal(err)
	}
	got, found, err := fps.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != want {
		t.Fatalf("load: got %+v found=%v, want %+v", got, found, want)
	}
}

func TestFingerprintStore_OnlyOneKeyWritten(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(model.StorageKeyLastModified, "t1")

	fp, found, err := NewFingerprintStore(kv).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("a single key should count as a persisted fingerprint")
	}
	if fp.ETag != "" || fp.LastModified != "t1" {
		t.Fatalf("unexpected fingerprint %+v", fp)
	}
}

func TestFingerprintStore_Malformed(t *testing.T) {
	kv := NewMemoryKV()
	_ = kv.Set(model.StorageKeyETag, "\xff\xfe")

	_, _, err := NewFingerprintStore(kv).Load()
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestHistoryRepo_AppendAndList(t *testing.T) {
	_, history := newTestKV(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	for i, id := range []string{"r1", "r2", "r3"} {
		err := history.Append(model.UpdateRecord{
			ID:           id,
			Reason:       model.ReasonRedeploy,
			Previous:     model.Fingerprint{ETag: "old"},
			Current:      model.Fingerprint{ETag: id},
			DetectedAtNs: base + int64(i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	// Duplicate IDs are ignored.
	if err := history.Append(model.UpdateRecord{ID: "r1", Reason: model.ReasonRedeploy, DetectedAtNs: base}); err != nil {
		t.Fatal(err)
	}

	recs, total, err := history.List(2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("total: got %d, want 3", total)
	}
	if len(recs) != 2 || recs[0].ID != "r3" || recs[1].ID != "r2" {
		t.Fatalf("unexpected page: %+v", recs)
	}
	if recs[0].Reason != model.ReasonRedeploy || recs[0].Previous.ETag != "old" {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
}

func TestHistoryRepo_Get(t *testing.T) {
	_, history := newTestKV(t)
	rec := model.UpdateRecord{
		ID:           "11111111-2222-4333-8444-555555555555",
		Reason:       model.ReasonRedeploy,
		Previous:     model.Fingerprint{ETag: "a", LastModified: "t1"},
		Current:      model.Fingerprint{ETag: "b", LastModified: "t1"},
		DetectedAtNs: 42,
	}
	if err := history.Append(rec); err != nil {
		t.Fatal(err)
	}

	got, err := history.Get(rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != rec {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
	if _, err := history.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Resinat/stalecheck/internal/model"
)

// HistoryRepo records detected deployment changes.
type HistoryRepo struct {
	db *sql.DB
	mu sync.Mutex
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append inserts one record. Records with a duplicate ID are ignored.
func (r *HistoryRepo) Append(rec model.UpdateRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT OR IGNORE INTO update_history (id, reason, previous_etag, previous_last_modified,
		                                      current_etag, current_last_modified, detected_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, string(rec.Reason), rec.Previous.ETag, rec.Previous.LastModified,
		rec.Current.ETag, rec.Current.LastModified, rec.DetectedAtNs)
	if err != nil {
		return fmt.Errorf("store: append history %s: %w", rec.ID, err)
	}
	return nil
}

// List returns records newest first, plus the total row count.
func (r *HistoryRepo) List(limit, offset int) ([]model.UpdateRecord, int, error) {
	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM update_history").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count history: %w", err)
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`
		SELECT id, reason, previous_etag, previous_last_modified,
		       current_etag, current_last_modified, detected_at_ns
		FROM update_history
		ORDER BY detected_at_ns DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list history: %w", err)
	}
	defer rows.Close()

	var out []model.UpdateRecord
	for rows.Next() {
		var rec model.UpdateRecord
		var reason string
		if err := rows.Scan(&rec.ID, &reason, &rec.Previous.ETag, &rec.Previous.LastModified,
			&rec.Current.ETag, &rec.Current.LastModified, &rec.DetectedAtNs); err != nil {
			return nil, 0, fmt.Errorf("store: scan history: %w", err)
		}
		rec.Reason = model.ParseUpdateReason(reason)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: iterate history: %w", err)
	}
	return out, total, nil
}

// Get returns the record with id, or ErrNotFound.
func (r *HistoryRepo) Get(id string) (model.UpdateRecord, error) {
	var rec model.UpdateRecord
	var reason string
	err := r.db.QueryRow(`
		SELECT id, reason, previous_etag, previous_last_modified,
		       current_etag, current_last_modified, detected_at_ns
		FROM update_history
		WHERE id = ?
	`, id).Scan(&rec.ID, &reason, &rec.Previous.ETag, &rec.Previous.LastModified,
		&rec.Current.ETag, &rec.Current.LastModified, &rec.DetectedAtNs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UpdateRecord{}, ErrNotFound
	}
	if err != nil {
		return model.UpdateRecord{}, fmt.Errorf("store: get history %s: %w", id, err)
	}
	rec.Reason = model.ParseUpdateReason(reason)
	return rec, nil
}

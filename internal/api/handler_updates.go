package api

import (
	"net/http"

	"github.com/Resinat/stalecheck/internal/model"
)

// HandleListUpdates returns a handler for GET /api/v1/updates.
// Records are returned newest first.
func HandleListUpdates(h HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset, err := pageQuery(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		items, total, err := h.List(limit, offset)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		page := updatesPage{Items: items, Total: total, Limit: limit, Offset: offset}
		if page.Items == nil {
			page.Items = []model.UpdateRecord{}
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// HandleGetUpdate returns a handler for GET /api/v1/updates/{id}.
func HandleGetUpdate(h HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := updateID(r)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		rec, err := h.Get(id)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

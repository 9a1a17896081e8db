package api

import (
	"net/http"

	"github.com/Resinat/stalecheck/internal/detector"
)

type pageStatus struct {
	Visible     bool `json:"visible"`
	Subscribers int  `json:"subscribers"`
}

type statusResponse struct {
	detector.Status

	Page *pageStatus `json:"page,omitempty"`
}

// HandleStatus returns a handler for GET /api/v1/status. The page section is
// present when page state is wired.
func HandleStatus(d Detector, page PageState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{Status: d.Status()}
		if page != nil {
			resp.Page = &pageStatus{Visible: page.Visible(), Subscribers: page.Subscribers()}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCheckNow returns a handler for POST /api/v1/actions/check.
// A check already in flight, or the development gate, yields updated=false.
func HandleCheckNow(d Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated := d.CheckForUpdate(r.Context())
		writeJSON(w, http.StatusOK, map[string]bool{"updated": updated})
	}
}

type developmentRequest struct {
	Enabled *bool `json:"enabled"`
}

// HandleSetDevelopment returns a handler for PUT /api/v1/development.
func HandleSetDevelopment(d Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req developmentRequest
		if err := decodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if req.Enabled == nil {
			writeInvalidArgument(w, "enabled: field is required")
			return
		}
		d.SetDevelopmentMode(*req.Enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"development": d.IsDevelopment()})
	}
}

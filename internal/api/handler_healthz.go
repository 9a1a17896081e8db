package api

import "net/http"

type healthzResponse struct {
	Status  string `json:"status"`
	Polling *bool  `json:"polling,omitempty"`
}

// HandleHealthz returns a handler for GET /healthz. No authentication is
// required. When a detector is wired, its polling state is included.
func HandleHealthz(d Detector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{Status: "ok"}
		if d != nil {
			polling := d.Polling()
			resp.Polling = &polling
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

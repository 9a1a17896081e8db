package api

import "net/http"

// HandleSystemInfo returns a handler for GET /api/v1/system/info.
func HandleSystemInfo(info SystemInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}

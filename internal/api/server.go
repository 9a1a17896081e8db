package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
)

// Server wraps the HTTP server and mux for the stalecheck agent API.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new API server wired with all routes.
//
// Admin routes live under /api/ behind the bearer token. Page routes used by
// the browser shim live under /shim/v1/ and are restricted to
// allowedOrigins instead.
func NewServer(
	listenAddress string,
	port int,
	adminToken string,
	allowedOrigins []string,
	apiMaxBodyBytes int64,
	deps Deps,
) *Server {
	mux := http.NewServeMux()

	// Public (no auth)
	mux.Handle("GET /healthz", HandleHealthz(deps.Detector))

	// Authenticated routes
	authed := http.NewServeMux()
	authed.Handle("GET /api/v1/system/info", HandleSystemInfo(deps.SystemInfo))
	if deps.Detector != nil {
		authed.Handle("GET /api/v1/status", HandleStatus(deps.Detector, deps.Page))
		authed.Handle("POST /api/v1/actions/check", HandleCheckNow(deps.Detector))
		authed.Handle("PUT /api/v1/development", HandleSetDevelopment(deps.Detector))
	}
	if deps.History != nil {
		authed.Handle("GET /api/v1/updates", HandleListUpdates(deps.History))
		authed.Handle("GET /api/v1/updates/{id}", HandleGetUpdate(deps.History))
	}

	// Page routes
	page := http.NewServeMux()
	if deps.Events != nil {
		page.Handle("POST /shim/v1/events/visibility", HandleVisibilityEvent(deps.Events))
		page.Handle("POST /shim/v1/events/resource-error", HandleResourceErrorEvent(deps.Events))
	}
	if deps.Prompt != nil {
		page.Handle("GET /shim/v1/prompt", HandleGetPrompt(deps.Prompt, deps.Markup, deps.Reload))
		page.Handle("POST /shim/v1/prompt/actions/{action}", HandlePromptAction(deps.Prompt, deps.Markup, deps.Reload))
	}
	if deps.Reload != nil {
		page.Handle("GET /shim/v1/reload", HandleReloadWait(deps.Reload))
	}

	mux.Handle("/api/", AuthMiddleware(adminToken, RequestBodyLimitMiddleware(apiMaxBodyBytes, authed)))
	mux.Handle("/shim/v1/", CORSMiddleware(allowedOrigins, RequestBodyLimitMiddleware(apiMaxBodyBytes, page)))
	registerShimAssets(mux)

	srv := &http.Server{
		Addr:    net.JoinHostPort(listenAddress, strconv.Itoa(port)),
		Handler: mux,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}

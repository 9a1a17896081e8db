package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Resinat/stalecheck/internal/hostctl"
	"github.com/Resinat/stalecheck/internal/model"
	"github.com/Resinat/stalecheck/internal/prompt"
)

const maxReloadWait = 60 * time.Second

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// HandleVisibilityEvent returns a handler for POST /shim/v1/events/visibility.
func HandleVisibilityEvent(events EventSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req visibilityRequest
		if err := decodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if req.Visible == nil {
			writeInvalidArgument(w, "visible: field is required")
			return
		}
		events.PublishVisibility(*req.Visible)
		w.WriteHeader(http.StatusNoContent)
	}
}

type resourceErrorRequest struct {
	Kind    string `json:"kind"`
	Tag     string `json:"tag"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

func (req resourceErrorRequest) toModel() (model.ResourceError, error) {
	ev := model.ResourceError{
		Kind:    model.ResourceErrorKind(strings.TrimSpace(req.Kind)),
		Message: req.Message,
	}
	if !ev.Kind.IsValid() {
		return ev, invalidArgumentError(fmt.Sprintf(
			"kind: must be %s or %s", model.ResourceErrorElementLoad, model.ResourceErrorUnhandledRejection,
		))
	}
	tag := strings.ToLower(strings.TrimSpace(req.Tag))
	if ev.Kind == model.ResourceErrorElementLoad {
		if tag == "" {
			return ev, invalidArgumentError("tag: required for element-load")
		}
		ev.Element = &model.ElementRef{Tag: tag, URL: req.URL}
	}
	return ev, nil
}

// HandleResourceErrorEvent returns a handler for POST /shim/v1/events/resource-error.
func HandleResourceErrorEvent(events EventSink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resourceErrorRequest
		if err := decodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		ev, err := req.toModel()
		if err != nil {
			writeAPIError(w, err)
			return
		}
		events.PublishResourceError(ev)
		w.WriteHeader(http.StatusNoContent)
	}
}

type promptResponse struct {
	View   prompt.View          `json:"view"`
	HTML   string               `json:"html,omitempty"`
	Reload *hostctl.ReloadState `json:"reload,omitempty"`
}

func buildPromptResponse(p Prompt, markup Markup, reload ReloadSource, includeHTML bool) promptResponse {
	resp := promptResponse{View: p.Snapshot()}
	if includeHTML && markup != nil {
		resp.HTML, _ = markup.Markup()
	}
	if reload != nil {
		st := reload.State()
		resp.Reload = &st
	}
	return resp
}

// HandleGetPrompt returns a handler for GET /shim/v1/prompt.
// The rendered dialog is included unless html=false.
func HandleGetPrompt(p Prompt, markup Markup, reload ReloadSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeHTML, err := queryFlag(r, "html", true)
		if err != nil {
			writeInvalidArgument(w, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, buildPromptResponse(p, markup, reload, includeHTML))
	}
}

// HandlePromptAction returns a handler for POST /shim/v1/prompt/actions/{action}.
func HandlePromptAction(p Prompt, markup Markup, reload ReloadSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var handled bool
		switch action := r.PathValue("action"); action {
		case "refresh":
			handled = p.HandleRefresh()
		case "later":
			handled = p.HandleLater()
		case "close":
			p.Hide()
			handled = true
		case "escape":
			handled = p.HandleEscape()
		case "click-outside":
			handled = p.HandleClickOutside()
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown prompt action %q", action))
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Handled bool `json:"handled"`
			promptResponse
		}{handled, buildPromptResponse(p, markup, reload, true)})
	}
}

// HandleReloadWait returns a handler for GET /shim/v1/reload.
// With seen=N it waits up to wait (default 0, max 60s) for a reload request
// newer than N, then returns the latest state.
func HandleReloadWait(reload ReloadSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var seen uint64
		if v := r.URL.Query().Get("seen"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				writeInvalidArgument(w, "seen: must be a non-negative integer")
				return
			}
			seen = n
		}
		var wait time.Duration
		if v := r.URL.Query().Get("wait"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 || d > maxReloadWait {
				writeInvalidArgument(w, fmt.Sprintf("wait: must be a duration between 0s and %s", maxReloadWait))
				return
			}
			wait = d
		}

		if wait == 0 {
			writeJSON(w, http.StatusOK, reload.State())
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		defer cancel()
		st, err := reload.Wait(ctx, seen)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				// Client went away.
				return
			}
			st = reload.State()
		}
		writeJSON(w, http.StatusOK, st)
	}
}

package api

import (
	"context"
	"time"

	"github.com/Resinat/stalecheck/internal/detector"
	"github.com/Resinat/stalecheck/internal/hostctl"
	"github.com/Resinat/stalecheck/internal/model"
	"github.com/Resinat/stalecheck/internal/prompt"
)

// SystemInfo contains version and runtime information.
type SystemInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime string    `json:"build_time"`
	StartedAt time.Time `json:"started_at"`
}

// Detector is the change detector as seen by the API.
type Detector interface {
	Status() detector.Status
	Polling() bool
	CheckForUpdate(ctx context.Context) bool
	SetDevelopmentMode(enabled bool)
	IsDevelopment() bool
}

// Prompt is the prompt controller as seen by the API.
type Prompt interface {
	Snapshot() prompt.View
	Hide()
	HandleRefresh() bool
	HandleLater() bool
	HandleEscape() bool
	HandleClickOutside() bool
}

// Markup renders the prompt dialog.
type Markup interface {
	Markup() (string, prompt.Phase)
}

// EventSink receives page events reported by the browser shim.
type EventSink interface {
	PublishVisibility(visible bool)
	PublishResourceError(ev model.ResourceError)
}

// PageState reports what the browser shim last published about the page.
type PageState interface {
	Visible() bool
	Subscribers() int
}

// ReloadSource exposes pending reload requests to the browser shim.
type ReloadSource interface {
	State() hostctl.ReloadState
	Wait(ctx context.Context, seen uint64) (hostctl.ReloadState, error)
}

// HistoryReader reads recorded deployment changes.
type HistoryReader interface {
	List(limit, offset int) ([]model.UpdateRecord, int, error)
	Get(id string) (model.UpdateRecord, error)
}

// Deps are the components served by the API. Any of them may be nil; the
// routes that need a missing component are not registered.
type Deps struct {
	SystemInfo SystemInfo
	Detector   Detector
	Prompt     Prompt
	Markup     Markup
	Events     EventSink
	Page       PageState
	Reload     ReloadSource
	History    HistoryReader
}

package prompt

import "github.com/Resinat/stalecheck/internal/model"

const (
	headingVersionChange = "new version found"
	headingUpdated       = "app updated"
	headingNetworkIssue  = "network issue"

	noteResourceError = "Some resources failed to load. The application may have been updated; please refresh the page."
	noteNetworkError  = "The connection to the server appears to be lost. Please check your network and refresh."
)

// Content is what a reason contributes to the dialog.
type Content struct {
	Heading string `json:"heading"`
	// Note, when set, is rendered as a red warning banner.
	Note string `json:"note,omitempty"`
}

// ContentFor maps an update reason to its heading and warning note.
func ContentFor(reason model.UpdateReason) Content {
	switch reason {
	case model.ReasonVersionChange:
		return Content{Heading: headingVersionChange}
	case model.ReasonResourceError:
		return Content{Heading: headingUpdated, Note: noteResourceError}
	case model.ReasonNetworkError:
		return Content{Heading: headingNetworkIssue, Note: noteNetworkError}
	default:
		return Content{Heading: headingUpdated}
	}
}

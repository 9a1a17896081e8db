package model

import "strings"

// UpdateReason classifies why an update prompt is shown.
type UpdateReason string

const (
	ReasonVersionChange UpdateReason = "version-change"
	ReasonRedeploy      UpdateReason = "redeploy"
	ReasonResourceError UpdateReason = "resource-error"
	ReasonNetworkError  UpdateReason = "network-error"
	ReasonUnknown       UpdateReason = "unknown"
)

func (r UpdateReason) IsValid() bool {
	switch r {
	case ReasonVersionChange, ReasonRedeploy, ReasonResourceError, ReasonNetworkError, ReasonUnknown:
		return true
	default:
		return false
	}
}

// ParseUpdateReason maps raw to a known reason; anything else is ReasonUnknown.
func ParseUpdateReason(raw string) UpdateReason {
	r := UpdateReason(strings.ToLower(strings.TrimSpace(raw)))
	if r.IsValid() {
		return r
	}
	return ReasonUnknown
}

package model

// ResourceErrorKind distinguishes the two host signals that may indicate a
// stale build: a failed element load, or an unhandled promise rejection.
type ResourceErrorKind string

const (
	ResourceErrorElementLoad        ResourceErrorKind = "element-load"
	ResourceErrorUnhandledRejection ResourceErrorKind = "unhandled-rejection"
)

func (k ResourceErrorKind) IsValid() bool {
	return k == ResourceErrorElementLoad || k == ResourceErrorUnhandledRejection
}

// ElementRef references the page element whose load failed.
type ElementRef struct {
	Tag string `json:"tag"`
	URL string `json:"url,omitempty"`
}

// ResourceError is a host error event forwarded to the detector.
type ResourceError struct {
	Kind    ResourceErrorKind `json:"kind"`
	Element *ElementRef       `json:"element,omitempty"`
	Message string            `json:"message,omitempty"`
}

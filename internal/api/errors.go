package api

import (
	"errors"
	"net/http"

	"github.com/Resinat/stalecheck/internal/store"
)

// Error is a handler error carrying an API error code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func invalidArgumentError(message string) *Error {
	return &Error{Code: "INVALID_ARGUMENT", Message: message}
}

func writeInvalidArgument(w http.ResponseWriter, message string) {
	writeAPIError(w, invalidArgumentError(message))
}

// writeDecodeBodyError answers 413 when the body limit was hit and 400
// otherwise.
func writeDecodeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *requestBodyTooLargeError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", tooLarge.Error())
		return
	}
	writeInvalidArgument(w, err.Error())
}

// writeAPIError maps handler and store errors to HTTP response codes.
// A missing history record is 404, an *Error with INVALID_ARGUMENT is 400,
// anything else is 500.
func writeAPIError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "not found")
		return
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		status := http.StatusInternalServerError
		if apiErr.Code == "INVALID_ARGUMENT" {
			status = http.StatusBadRequest
		}
		writeError(w, status, apiErr.Code, apiErr.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const (
	defaultUpdatesLimit = 50
	maxUpdatesLimit     = 1000
)

type requestBodyTooLargeError struct {
	Limit int64
}

func (e *requestBodyTooLargeError) Error() string {
	return fmt.Sprintf("request body too large (max %d bytes)", e.Limit)
}

// pageQuery reads limit and offset. A zero or absent limit selects the
// default.
func pageQuery(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = defaultUpdatesLimit
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		switch {
		case convErr != nil || n < 0:
			return 0, 0, errors.New("limit: must be a non-negative integer")
		case n > maxUpdatesLimit:
			return 0, 0, fmt.Errorf("limit: must be <= %d", maxUpdatesLimit)
		case n > 0:
			limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, errors.New("offset: must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

// queryFlag parses an optional boolean query parameter, returning def when
// it is absent.
func queryFlag(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: must be true or false", key)
	}
	return b, nil
}

// updateID returns the {id} path value when it is a canonical lowercase
// UUID, the form history records are stored under.
func updateID(r *http.Request) (string, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil || id.String() != raw {
		return "", errors.New("id: must be a valid UUID")
	}
	return raw, nil
}

// decodeBody decodes exactly one JSON value from the request body, rejecting
// unknown fields.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil {
		err = dec.Decode(&struct{}{})
		if err == io.EOF {
			return nil
		}
		if err == nil {
			err = errors.New("must contain a single JSON value")
		}
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &requestBodyTooLargeError{Limit: maxErr.Limit}
	}
	return fmt.Errorf("invalid request body: %w", err)
}

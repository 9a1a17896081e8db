// Package netutil fetches deployment fingerprints and probes connectivity
// over HTTP.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/net/http/httpguts"

	"github.com/Resinat/stalecheck/internal/model"
)

const (
	// CacheBustParam is the query parameter carrying the request timestamp.
	CacheBustParam = "_t"

	DefaultValidatorHeader = "ETag"
	DefaultTimestampHeader = "Last-Modified"

	defaultTimeout      = 15 * time.Second
	probeInflightMaxLen = 64

	// probeInflightTTL drops an entry whose owner never finished.
	probeInflightTTL = 2 * time.Minute
)

// HTTPStatusError indicates the server responded, but with an unexpected
// HTTP status code. This is a non-network failure.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("fetcher: unexpected status %d from %s", e.StatusCode, e.URL)
}

// NonRetryableError indicates request setup failed before any transport
// attempt was made (for example, malformed URL).
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("fetcher: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// HeaderFetcherOptions configures a HeaderFetcher.
type HeaderFetcherOptions struct {
	Client          *http.Client
	TimeoutFn       func() time.Duration
	UserAgentFn     func() string
	ValidatorHeader string // default "ETag"
	TimestampHeader string // default "Last-Modified"
}

// HeaderFetcher reads fingerprint headers from the entry document without
// transferring its body.
type HeaderFetcher struct {
	client          *http.Client
	timeoutFn       func() time.Duration
	userAgentFn     func() string
	validatorHeader string
	timestampHeader string
	now             func() time.Time

	// inflight holds the probe currently running per URL, so concurrent
	// callers share one request. Entries are removed when the probe ends.
	inflight otter.Cache[string, *probeCall]
}

type probeCall struct {
	done chan struct{}
	err  error
}

// NewHeaderFetcher creates a fetcher. Invalid header names fall back to the
// defaults.
func NewHeaderFetcher(opts HeaderFetcherOptions) *HeaderFetcher {
	f := &HeaderFetcher{
		client:          opts.Client,
		timeoutFn:       opts.TimeoutFn,
		userAgentFn:     opts.UserAgentFn,
		validatorHeader: headerOrDefault(opts.ValidatorHeader, DefaultValidatorHeader),
		timestampHeader: headerOrDefault(opts.TimestampHeader, DefaultTimestampHeader),
		now:             time.Now,
	}
	if f.client == nil {
		f.client = &http.Client{}
	}
	inflight, err := otter.MustBuilder[string, *probeCall](probeInflightMaxLen).
		WithTTL(probeInflightTTL).
		Build()
	if err != nil {
		panic("netutil: failed to create probe table: " + err.Error())
	}
	f.inflight = inflight
	return f
}

func headerOrDefault(name, def string) string {
	if name == "" || !httpguts.ValidHeaderFieldName(name) {
		return def
	}
	return http.CanonicalHeaderKey(name)
}

// CacheBustURL appends the cache-busting timestamp parameter to rawURL.
func CacheBustURL(rawURL string, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(now.UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FetchFingerprint requests rawURL with a cache-busting query and a no-cache
// directive, and returns the validator and timestamp headers. HEAD is used;
// servers that refuse HEAD are retried with GET and the body is discarded.
func (f *HeaderFetcher) FetchFingerprint(ctx context.Context, rawURL string) (model.Fingerprint, error) {
	target, err := CacheBustURL(rawURL, f.now())
	if err != nil {
		return model.Fingerprint{}, &NonRetryableError{Err: err}
	}

	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	resp, err := f.do(ctx, http.MethodHead, target, true)
	if err != nil {
		return model.Fingerprint{}, err
	}
	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp.Body.Close()
		resp, err = f.do(ctx, http.MethodGet, target, true)
		if err != nil {
			return model.Fingerprint{}, err
		}
	}
	// The body is never read.
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Fingerprint{}, &HTTPStatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}
	return model.Fingerprint{
		ETag:         resp.Header.Get(f.validatorHeader),
		LastModified: resp.Header.Get(f.timestampHeader),
	}, nil
}

// Probe checks basic connectivity to rawURL. Any HTTP response counts as
// connected; only transport failures are returned as errors. Every call gets
// the outcome of a request that completes after the call began: a caller
// that arrives while a probe of the same URL is running waits for it instead
// of issuing its own.
func (f *HeaderFetcher) Probe(ctx context.Context, rawURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	call := &probeCall{done: make(chan struct{})}
	for !f.inflight.SetIfAbsent(rawURL, call) {
		shared, ok := f.inflight.Get(rawURL)
		if !ok {
			continue
		}
		select {
		case <-shared.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if shared.err != nil && isContextError(shared.err) && ctx.Err() == nil {
			// The owner gave up; its outcome says nothing about connectivity.
			continue
		}
		return shared.err
	}

	call.err = f.probe(ctx, rawURL)
	f.inflight.Delete(rawURL)
	close(call.done)
	return call.err
}

func (f *HeaderFetcher) probe(ctx context.Context, rawURL string) error {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	resp, err := f.do(ctx, http.MethodHead, rawURL, false)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (f *HeaderFetcher) do(ctx context.Context, method, target string, noCache bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &NonRetryableError{Err: err}
	}
	if noCache {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}
	if f.userAgentFn != nil {
		if ua := f.userAgentFn(); ua != "" {
			req.Header.Set("User-Agent", ua)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: %s %s: %w", method, target, err)
	}
	return resp, nil
}

// withTimeout applies the configured timeout unless the caller already set a
// deadline.
func (f *HeaderFetcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	timeout := defaultTimeout
	if f.timeoutFn != nil {
		if t := f.timeoutFn(); t > 0 {
			timeout = t
		}
	}
	return context.WithTimeout(ctx, timeout)
}

// Close releases the in-flight probe table.
func (f *HeaderFetcher) Close() {
	f.inflight.Close()
}

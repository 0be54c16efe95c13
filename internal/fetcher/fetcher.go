// Package fetcher retrieves JSON documents from participant endpoints,
// backed by the on-disk response cache.
//
// Availability of participant APIs is best effort: unreachable hosts,
// invalid declared URLs and non-2xx answers all degrade to an absent result
// so that one broken institution never aborts a batch run. A body that is
// not valid JSON is the one failure that surfaces as an error, since it
// points at a genuine integration problem.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/obrdata/openbankingbr/internal/constants"
	"github.com/obrdata/openbankingbr/internal/fields"
)

// Cache is the subset of the response cache consumed by the fetcher.
type Cache interface {
	Get(url string) (any, bool)
	Put(url string, doc any) error
}

// MalformedResponseError reports an endpoint that returned a body which is
// not valid JSON.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("endpoint %s did not return valid JSON: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Fetcher issues GET requests for JSON documents, consulting the cache first.
type Fetcher struct {
	client    *http.Client
	cache     Cache
	userAgent string
}

type options struct {
	timeout time.Duration
	// Private member exported for tests.
	transport http.RoundTripper
}

// Options represents an optional function to override Fetcher default values.
type Options func(*options)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Options {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithTransport overrides the HTTP transport.
func WithTransport(rt http.RoundTripper) Options {
	return func(o *options) {
		o.transport = rt
	}
}

// New returns a Fetcher using cache for reads and writes.
// cache may be nil, in which case every Fetch goes to the network.
func New(cache Cache, args ...Options) *Fetcher {
	opts := options{
		timeout: constants.DefaultHTTPTimeout * time.Second,
	}
	for _, opt := range args {
		opt(&opts)
	}

	return &Fetcher{
		client:    &http.Client{Timeout: opts.timeout, Transport: opts.transport},
		cache:     cache,
		userAgent: fmt.Sprintf("%s/%s (+https://github.com/obrdata/openbankingbr)", constants.CmdName, constants.Version),
	}
}

// Fetch returns the JSON document at rawURL, or nil when the endpoint is
// invalid or unreachable. A fresh cache entry is served without network
// access; a successful fetch is persisted to the cache before returning.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (any, error) {
	if f.cache != nil {
		if doc, ok := f.cache.Get(rawURL); ok {
			slog.Debug("Serving document from cache", "url", rawURL)
			return doc, nil
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		// Participants declare whatever they like as endpoints.
		slog.Debug("Ignoring invalid endpoint URL", "url", rawURL)
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		slog.Debug("Ignoring endpoint, could not build request", "url", rawURL, "error", err)
		return nil, nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("Endpoint unreachable", "url", rawURL, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Debug("Endpoint returned unexpected status", "url", rawURL, "status", resp.StatusCode)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Debug("Failed to read endpoint response", "url", rawURL, "error", err)
		return nil, nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &MalformedResponseError{URL: rawURL, Err: err}
	}

	if f.cache != nil && doc != nil {
		if err := f.cache.Put(rawURL, doc); err != nil {
			slog.Warn("Failed to cache response", "url", rawURL, "error", err)
		}
	}

	return doc, nil
}

// WalkPages fetches rawURL and follows the links.next chain, calling yield
// with every page's data object. The requesting URL is attached to each page
// under the synthetic endPoint field.
//
// The walk stops when a response is absent, has no data object, yield
// returns false, or the next link is missing or not an absolute http(s) URL.
// Total page count metadata is deliberately ignored: it is unreliable across
// implementations. There is no guard against a cyclic next chain.
func (f *Fetcher) WalkPages(ctx context.Context, rawURL string, yield func(page fields.Doc) bool) error {
	for rawURL != "" {
		doc, err := f.Fetch(ctx, rawURL)
		if err != nil {
			return err
		}

		root, ok := doc.(map[string]any)
		if !ok {
			return nil
		}

		page, ok := root["data"].(map[string]any)
		if !ok {
			return nil
		}
		page["endPoint"] = rawURL

		if !yield(page) {
			return nil
		}

		next, ok := fields.String(root, "links.next")
		if !ok || !isAbsoluteHTTP(next) {
			return nil
		}
		rawURL = next
	}
	return nil
}

func isAbsoluteHTTP(rawURL string) bool {
	return strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://")
}

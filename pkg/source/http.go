package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSource fetches records as JSON over HTTP, resolving identifiers
// against a base URL ("https://api.example.com/records" + "/<id>").
type HTTPSource struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

// HTTPOption customises an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient swaps the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRequestTimeout bounds each fetch.
func WithRequestTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.timeout = timeout
	}
}

// NewHTTPSource constructs an HTTPSource for a base URL.
func NewHTTPSource(baseURL string, options ...HTTPOption) (*HTTPSource, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("source: base url is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("source: parse base url: %w", err)
	}

	s := &HTTPSource{
		client:  &http.Client{},
		baseURL: trimmed,
		timeout: 10 * time.Second,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Fetch retrieves and decodes the record for id.
func (s *HTTPSource) Fetch(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, errors.New("source: record id is empty")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	target := s.baseURL + "/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("source: fetch record %q: %w", id, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("source: fetch record %q: unexpected status %s", id, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("source: read record %q: %w", id, err)
	}
	return decodeRecord(id, data)
}

package models

import (
	"io"
	"net/http"
	"strings"
	"time"
)

// guardedClient returns an HTTP client whose transport turns unreachable
// backends and non-model answers into *ErrModelUnavailable.
func guardedClient(provider string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &guardTransport{inner: http.DefaultTransport, provider: provider},
	}
}

// guardTransport catches what a reverse proxy in front of a model server
// typically returns: connection failures, 5xx pages and plain-text bodies.
// 4xx answers pass through so the SDK can decode the provider's own error.
type guardTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *guardTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}

	// JSON and NDJSON (streaming) are the only bodies a model server sends.
	ct := resp.Header.Get("Content-Type")
	notModel := ct != "" && !strings.Contains(ct, "json")
	if resp.StatusCode >= 500 || notModel {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &ErrModelUnavailable{
			Provider: t.provider,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}

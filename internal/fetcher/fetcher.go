package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ErrBadStatus indicates the remote server answered with a non-2xx status.
var ErrBadStatus = fmt.Errorf("unexpected response status")

// Fetcher downloads the content of a remote URL. A failed fetch only affects
// its own batch item; callers are expected to skip and continue.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

type httpFetcher struct {
	client *http.Client
}

// NewHTTP returns a Fetcher backed by net/http with a bounded timeout and an
// OpenTelemetry-instrumented transport.
func NewHTTP(timeout time.Duration) Fetcher {
	return &httpFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w: %d", rawURL, ErrBadStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", rawURL, err)
	}
	return body, nil
}

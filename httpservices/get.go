package httpservices

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/dcshock/servicepipe/pipeline"
)

// Get returns a service that performs an HTTP GET to the fixed url and returns the response body as []byte.
// Its input is ignored. The run context is used for the request (timeout and cancellation).
// If client is nil, http.DefaultClient is used.
func Get[S any](client *http.Client, url string) pipeline.Service[S] {
	if client == nil {
		client = http.DefaultClient
	}
	return pipeline.Named[S]("http-get", pipeline.ServiceFunc[S](func(ctx context.Context, _ any, _ *pipeline.Shared[S]) (any, error) {
		return get(ctx, client, "http get", url)
	}))
}

// Fetch returns a service that performs an HTTP GET to the URL from the previous service's output.
// Input must be a string URL. Returns the response body as []byte.
// If client is nil, http.DefaultClient is used.
func Fetch[S any](client *http.Client) pipeline.Service[S] {
	if client == nil {
		client = http.DefaultClient
	}
	return pipeline.Typed("http-fetch", func(ctx context.Context, url string, _ *pipeline.Shared[S]) ([]byte, error) {
		return get(ctx, client, "http fetch", url)
	})
}

func get(ctx context.Context, client *http.Client, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", op, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %q: status %d", op, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %q: read body: %w", op, url, err)
	}
	return body, nil
}

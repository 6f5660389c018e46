package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

// PositionSource yields the positions seen since the previous Fetch.
type PositionSource interface {
	Fetch(ctx context.Context) ([]Position, error)
}

// PushSource is fed by a broker; Run consumes until ctx is done or the
// connection fails.
type PushSource interface {
	PositionSource
	Run(ctx context.Context) error
}

// requeuer is implemented by sources whose Fetch drains what it returns.
// A position the backend rejected is handed back so the next tick retries it.
type requeuer interface {
	requeue(Position)
}

func newFeedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, otelhttp.WithTracerProvider(otel.GetTracerProvider())),
	}
}

// getFeed issues a GET for a pull feed. The caller closes the body.
func getFeed(ctx context.Context, c *http.Client, url, kind string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s http status: %d", kind, resp.StatusCode)
	}
	return resp.Body, nil
}

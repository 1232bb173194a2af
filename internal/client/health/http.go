package health

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/client/backend"
)

var _ Prober = (*HTTPProber)(nil)

// HTTPProber treats the REST API as reachable when its base URL answers
// with anything below 500. It needs no endpoint of its own.
type HTTPProber struct {
	url     string
	http    *http.Client
	timeout time.Duration
}

func NewHTTPProber(baseURL string, hc *http.Client) (*HTTPProber, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("health url %q: invalid", baseURL)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPProber{url: u.String(), http: hc, timeout: defaultPingTimeout}, nil
}

func (p *HTTPProber) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", backend.ErrUnavailable, err)
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", backend.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (p *HTTPProber) Close() error {
	p.http.CloseIdleConnections()
	return nil
}

package service

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// ConnectivityStatus is the reachability signal consulted before any
// remote AI call
type ConnectivityStatus string

const (
	StatusOnline  ConnectivityStatus = "online"
	StatusOffline ConnectivityStatus = "offline"
	StatusUnknown ConnectivityStatus = "unknown"
)

// ConnectivityChecker reports whether the upstream AI endpoint is
// reachable. When it says offline, remote calls fail fast without
// touching the network.
type ConnectivityChecker interface {
	Status(ctx context.Context) ConnectivityStatus
}

// HTTPConnectivityChecker probes the endpoint with a HEAD request and
// caches the verdict briefly so every API call does not pay for a probe
type HTTPConnectivityChecker struct {
	probeURL string
	client   *http.Client

	mu        sync.Mutex
	status    ConnectivityStatus
	checkedAt time.Time
	maxAge    time.Duration
}

// NewHTTPConnectivityChecker creates a checker probing probeURL
func NewHTTPConnectivityChecker(probeURL string) *HTTPConnectivityChecker {
	return &HTTPConnectivityChecker{
		probeURL: probeURL,
		client:   &http.Client{Timeout: 3 * time.Second},
		status:   StatusUnknown,
		maxAge:   30 * time.Second,
	}
}

func (c *HTTPConnectivityChecker) Status(ctx context.Context) ConnectivityStatus {
	c.mu.Lock()
	if time.Since(c.checkedAt) < c.maxAge && c.status != StatusUnknown {
		status := c.status
		c.mu.Unlock()
		return status
	}
	c.mu.Unlock()

	status := c.probe(ctx)

	c.mu.Lock()
	c.status = status
	c.checkedAt = time.Now()
	c.mu.Unlock()
	return status
}

func (c *HTTPConnectivityChecker) probe(ctx context.Context) ConnectivityStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.probeURL, nil)
	if err != nil {
		return StatusUnknown
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return StatusOffline
	}
	defer func() { _ = resp.Body.Close() }()
	// any HTTP response means the network path works
	return StatusOnline
}

// StaticConnectivity always reports a fixed status. Used in tests and to
// disable probing via configuration.
type StaticConnectivity ConnectivityStatus

func (s StaticConnectivity) Status(ctx context.Context) ConnectivityStatus {
	return ConnectivityStatus(s)
}

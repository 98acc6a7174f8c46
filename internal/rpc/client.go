// internal/rpc/client.go
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"loan-orchestrator/internal/common/config"
	"loan-orchestrator/internal/common/faults"
	httpclient "loan-orchestrator/internal/common/http"
	"loan-orchestrator/internal/common/logger"
	"loan-orchestrator/internal/common/metrics"
	"loan-orchestrator/internal/correlation"
)

// TransportError marks a call that failed below the business layer: the
// collaborator was unreachable, timed out, or answered with a server error
// after all retries were spent. It is distinct from a business fault, which
// the collaborator raised deliberately and which is never retried.
type TransportError struct {
	Collaborator string
	Operation    string
	Attempts     int
	Err          error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure calling %s.%s after %d attempt(s): %v",
		e.Collaborator, e.Operation, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// handle is the lazily-created connection state for one collaborator.
type handle struct {
	once    sync.Once
	baseURL string
	client  *httpclient.Client
	err     error
}

// Client is the remote service client shared by the orchestrator. One Client
// serves all collaborators; each collaborator gets its own lazily-dialed
// handle on first use, then the handle is reused for every later call.
type Client struct {
	cfg     config.RPCConfig
	routes  map[string]config.CollaboratorConfig
	logger  logger.Logger
	mu      sync.Mutex
	handles map[string]*handle
}

// NewClient builds a remote service client over the configured collaborator
// endpoints.
func NewClient(cfg config.RPCConfig, routes map[string]config.CollaboratorConfig, log logger.Logger) *Client {
	return &Client{
		cfg:     cfg,
		routes:  routes,
		logger:  log,
		handles: make(map[string]*handle),
	}
}

func (c *Client) handleFor(name string) (*handle, error) {
	c.mu.Lock()
	h, ok := c.handles[name]
	if !ok {
		h = &handle{}
		c.handles[name] = h
	}
	c.mu.Unlock()

	h.once.Do(func() {
		route, ok := c.routes[name]
		if !ok || !route.Enabled {
			h.err = fmt.Errorf("no endpoint configured for collaborator %q", name)
			return
		}
		h.baseURL = strings.TrimRight(route.BaseURL, "/")
		h.client = httpclient.NewClient(config.GetDuration(c.cfg.TimeoutMs))
	})

	return h, h.err
}

// Call invokes operation on the named collaborator with args as the JSON
// request body and decodes the JSON reply into out (out may be nil when the
// reply does not matter). A *faults.Fault returned by the peer is surfaced
// verbatim; transport failures are retried with exponential backoff and
// reported as *TransportError once retries are exhausted.
func (c *Client) Call(ctx context.Context, collaborator, operation string, args interface{}, out interface{}) error {
	h, err := c.handleFor(collaborator)
	if err != nil {
		return &TransportError{Collaborator: collaborator, Operation: operation, Attempts: 1, Err: err}
	}

	body, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode %s.%s request: %w", collaborator, operation, err)
	}

	url := fmt.Sprintf("%s/rpc/%s", h.baseURL, operation)
	correlationID := correlation.FromContext(ctx)
	start := time.Now()

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := config.GetDuration(c.cfg.BackoffMs) * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				attempts++
				lastErr = ctx.Err()
				return c.transportFailure(collaborator, operation, correlationID, attempts, start, lastErr)
			}
		}
		attempts++

		reply, fault, err := c.doOnce(ctx, h, url, body)
		if err != nil {
			lastErr = err
			var fatal *unretryableStatus
			if errors.As(err, &fatal) {
				break
			}
			c.logger.Warn("remote call transport failure, will retry", map[string]interface{}{
				"correlation_id": correlationID,
				"collaborator":   collaborator,
				"operation":      operation,
				"attempt":        attempts,
				"error":          err.Error(),
			})
			continue
		}

		if fault != nil {
			c.observe(collaborator, operation, "fault", start)
			c.logger.Info("remote call returned business fault", map[string]interface{}{
				"correlation_id": correlationID,
				"collaborator":   collaborator,
				"operation":      operation,
				"fault_code":     string(fault.Code),
				"duration_ms":    time.Since(start).Milliseconds(),
			})
			return fault
		}

		if out != nil {
			if err := json.Unmarshal(reply, out); err != nil {
				return fmt.Errorf("failed to decode %s.%s reply: %w", collaborator, operation, err)
			}
		}

		c.observe(collaborator, operation, "success", start)
		c.logger.Info("remote call completed", map[string]interface{}{
			"correlation_id": correlationID,
			"collaborator":   collaborator,
			"operation":      operation,
			"duration_ms":    time.Since(start).Milliseconds(),
		})
		return nil
	}

	return c.transportFailure(collaborator, operation, correlationID, attempts, start, lastErr)
}

// doOnce performs a single HTTP exchange. It returns exactly one of: the raw
// success body, a decoded business fault, or a transport error.
func (c *Client) doOnce(ctx context.Context, h *handle, url string, body []byte) (json.RawMessage, *faults.Fault, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := correlation.FromContext(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return payload, nil, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var fault faults.Fault
		if err := json.Unmarshal(payload, &fault); err != nil || fault.Code == "" {
			return nil, nil, fmt.Errorf("malformed fault envelope (status %d)", resp.StatusCode)
		}
		return nil, &fault, nil
	case resp.StatusCode >= 500:
		return nil, nil, fmt.Errorf("server error from peer: %s", resp.Status)
	default:
		// Unexpected client-side status from a collaborator is not
		// retryable; treat it as an exhausted transport failure.
		return nil, nil, &unretryableStatus{status: resp.Status}
	}
}

type unretryableStatus struct {
	status string
}

func (e *unretryableStatus) Error() string {
	return fmt.Sprintf("unexpected status from peer: %s", e.status)
}

func (c *Client) transportFailure(collaborator, operation, correlationID string, attempts int, start time.Time, err error) error {
	c.observe(collaborator, operation, "transport_error", start)
	c.logger.Error("remote call failed at transport level", map[string]interface{}{
		"correlation_id": correlationID,
		"collaborator":   collaborator,
		"operation":      operation,
		"attempts":       attempts,
		"duration_ms":    time.Since(start).Milliseconds(),
		"error":          fmt.Sprint(err),
	})
	return &TransportError{Collaborator: collaborator, Operation: operation, Attempts: attempts, Err: err}
}

func (c *Client) observe(collaborator, operation, outcome string, start time.Time) {
	metrics.RemoteCallDuration.WithLabelValues(collaborator, operation, outcome).
		Observe(time.Since(start).Seconds())
}

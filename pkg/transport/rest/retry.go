package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"
)

// RetryConfig controls RetryTransport.
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    float64 // seconds
	BackoffMultiplier float64
	RetryableStatuses []int
}

// DefaultRetryConfig retries gateway failures only.
func DefaultRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    0.5,
		BackoffMultiplier: 2,
		RetryableStatuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

// RetryTransport resends a request after transient network errors or a
// retryable status. It is opt-in: GraphQL mutations go out as POST and a
// retried mutation may apply twice on the server.
type RetryTransport struct {
	Base http.RoundTripper
	Cfg  *RetryConfig

	mu     sync.Mutex
	jitter *rand.Rand
}

// NewRetryTransport creates a new retry transport
func NewRetryTransport(base http.RoundTripper, cfg *RetryConfig) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{
		Base:   base,
		Cfg:    cfg,
		jitter: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Cfg == nil || t.Cfg.MaxAttempts <= 1 {
		return t.Base.RoundTrip(req)
	}

	body, err := snapshotBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt < t.Cfg.MaxAttempts; attempt++ {
		req2 := req.Clone(req.Context())
		if body != nil {
			req2.Body = io.NopCloser(bytes.NewReader(body))
		}

		resp, err := t.Base.RoundTrip(req2)
		if err != nil {
			if !retryableNetError(err) {
				return nil, err
			}
			lastErr = err
		} else {
			if !t.contains(t.Cfg.RetryableStatuses, resp.StatusCode) {
				return resp, nil
			}
			lastResp = resp
		}

		if attempt == t.Cfg.MaxAttempts-1 {
			break
		}

		if lastResp != nil {
			io.Copy(io.Discard, lastResp.Body)
			lastResp.Body.Close()
			lastResp = nil
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(t.backoff(attempt)):
		}
	}

	if lastResp != nil {
		return lastResp, nil
	}
	return nil, fmt.Errorf("retry transport failed after %d attempts: %w", t.Cfg.MaxAttempts, lastErr)
}

func snapshotBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(buf))
	return buf, nil
}

func retryableNetError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// backoff computes full jitter exponential backoff
func (t *RetryTransport) backoff(attempt int) time.Duration {
	base := time.Duration(t.Cfg.InitialBackoff * float64(time.Second))
	maxDelay := time.Duration(float64(base) * math.Pow(t.Cfg.BackoffMultiplier, float64(attempt)))
	if maxDelay > 30*time.Second {
		maxDelay = 30 * time.Second
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.jitter.Float64() * float64(maxDelay))
}

func (t *RetryTransport) contains(slice []int, value int) bool {
	for _, v := range slice {
		if v == value {
			return true
		}
	}
	return false
}

package rest

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/saturnines/gqlprobe/pkg/auth"
)

// HTTPDoer is a minimal interface for HTTP clients
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// RequestHelper handles common HTTP request creation.
// Content-Type defaults to application/json when a body is present and the
// headers do not set one.
func RequestHelper(
	ctx context.Context,
	doer HTTPDoer,
	method string,
	baseURL string,
	endpoint string,
	headers map[string]string,
	body []byte,
	authHandler auth.Handler,
) (*http.Response, error) {
	url := baseURL
	if endpoint != "" {
		url = baseURL + endpoint
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if authHandler != nil {
		if err := authHandler.ApplyAuth(req); err != nil {
			return nil, err
		}
	}

	return doer.Do(req)
}

package auth

import (
	"fmt"
	"net/http"
)

// Handler applies credentials to an outgoing request.
type Handler interface {
	ApplyAuth(req *http.Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req *http.Request) error

func (f HandlerFunc) ApplyAuth(req *http.Request) error {
	return f(req)
}

// APIKeyAuth implements the Handler interface for API key authentication
type APIKeyAuth struct {
	HeaderName string // e.g. "X-API-Key"
	QueryParam string // e.g. "api_key"
	Value      string
}

// NewAPIKeyAuth creates a new API key authentication handler.
// At least one of headerName or queryParam must be set.
func NewAPIKeyAuth(headerName, queryParam, value string) *APIKeyAuth {
	return &APIKeyAuth{
		HeaderName: headerName,
		QueryParam: queryParam,
		Value:      value,
	}
}

// ApplyAuth adds the API key to the request, either as a header or query parameter
func (a *APIKeyAuth) ApplyAuth(req *http.Request) error {
	if a.Value == "" {
		return fmt.Errorf("API key value is required")
	}
	if a.HeaderName == "" && a.QueryParam == "" {
		return fmt.Errorf("API key auth requires either header name or query parameter name")
	}

	if a.HeaderName != "" {
		req.Header.Set(a.HeaderName, a.Value)
	}
	if a.QueryParam != "" {
		query := req.URL.Query()
		query.Set(a.QueryParam, a.Value)
		req.URL.RawQuery = query.Encode()
	}

	return nil
}

func (a *APIKeyAuth) String() string {
	if a.HeaderName != "" {
		return fmt.Sprintf("APIKeyAuth(header: %s)", a.HeaderName)
	}
	return fmt.Sprintf("APIKeyAuth(query: %s)", a.QueryParam)
}

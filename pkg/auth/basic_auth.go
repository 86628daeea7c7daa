package auth

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// BasicAuth sends the test username and password as HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// NewBasicAuth creates a new basic authentication handler
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{
		Username: username,
		Password: password,
	}
}

// ApplyAuth adds the basic auth header to the request.
// An empty password is allowed.
func (b *BasicAuth) ApplyAuth(req *http.Request) error {
	if b.Username == "" {
		return fmt.Errorf("username is empty and is required for basic auth")
	}

	encodedAuth := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	req.Header.Set("Authorization", "Basic "+encodedAuth)

	return nil
}

func (b *BasicAuth) String() string {
	return fmt.Sprintf("BasicAuth(username: %s)", b.Username)
}

package auth

import (
	"fmt"
	"net/http"
)

// BearerAuth sends the configured auth token as a bearer credential.
type BearerAuth struct {
	Token string
}

// NewBearerAuth creates a new bearer token authentication handler
func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{
		Token: token,
	}
}

// ApplyAuth adds the Bearer token to the Authorization header
func (b *BearerAuth) ApplyAuth(req *http.Request) error {
	if b.Token == "" {
		return fmt.Errorf("token is empty and is required for bearer auth")
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// String never includes the token itself.
func (b *BearerAuth) String() string {
	return "BearerAuth(token: [REDACTED])"
}

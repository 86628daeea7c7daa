package config

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

func emptyResolver(t *testing.T, props map[string]string) *Resolver {
	t.Helper()
	return NewResolver(
		WithFile(filepath.Join(t.TempDir(), "none.properties")),
		WithProperties(props),
		WithLookupEnv(envMap(nil)),
	)
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(emptyResolver(t, nil))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, "application/json", s.ContentType)
	assert.Equal(t, 10*time.Second, s.ConnectionTimeout)
	assert.Equal(t, 30*time.Second, s.RequestTimeout)
	assert.Equal(t, 21, s.TestUserID)
	assert.Equal(t, "AdminUser1", s.TestUsername)
	assert.Equal(t, "Admin@User1", s.TestPassword)
	assert.False(t, s.RequestLogging)
	assert.True(t, s.ResponseLogging)
	assert.Equal(t, 1, s.RetryAttempts)
	assert.Equal(t, AuthTypeNone, s.AuthType)
	assert.Nil(t, s.Auth())
	assert.Equal(t, SourceDefault, s.Source(KeyTestUserID))
}

func TestLoad_Overrides(t *testing.T) {
	s, err := Load(emptyResolver(t, map[string]string{
		KeyBaseURL:         "http://localhost:8080/graphql",
		KeyRequestTimeout:  "1500",
		KeyRequestLogging:  "TRUE",
		KeyResponseLogging: "nope",
		KeyAuthType:        "Bearer",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/graphql", s.BaseURL)
	assert.Equal(t, 1500*time.Millisecond, s.RequestTimeout)
	assert.True(t, s.RequestLogging)
	assert.False(t, s.ResponseLogging)
	require.NotNil(t, s.Auth())
	assert.Equal(t, AuthTypeBearer, s.Auth().Type)
	assert.Equal(t, DefaultTestAuthToken, s.Auth().Bearer.Token)
	assert.Equal(t, SourceProperty, s.Source(KeyBaseURL))
}

func TestLoad_APIKeyAuth(t *testing.T) {
	s, err := Load(emptyResolver(t, map[string]string{
		KeyAuthType:      "api_key",
		KeyAuthHeader:    "X-Probe-Key",
		KeyTestAuthToken: "k-123",
	}))
	require.NoError(t, err)

	a := s.Auth()
	require.NotNil(t, a)
	require.NotNil(t, a.APIKey)
	assert.Equal(t, "X-Probe-Key", a.APIKey.Header)
	assert.Equal(t, "k-123", a.APIKey.Value)
	assert.Empty(t, a.APIKey.QueryParam)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		field string
	}{
		{"non numeric user id", map[string]string{KeyTestUserID: "abc"}, KeyTestUserID},
		{"non numeric timeout", map[string]string{KeyConnectionTimeout: "10s"}, KeyConnectionTimeout},
		{"relative url", map[string]string{KeyBaseURL: "/graphql"}, KeyBaseURL},
		{"zero retries", map[string]string{KeyRetryAttempts: "0"}, KeyRetryAttempts},
		{"unknown auth", map[string]string{KeyAuthType: "kerberos"}, KeyAuthType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(emptyResolver(t, tt.props))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDescribe_RedactsSecrets(t *testing.T) {
	s, err := Load(emptyResolver(t, nil))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Describe(&buf))

	out := buf.String()
	assert.Contains(t, out, DefaultBaseURL)
	assert.Contains(t, out, "(default)")
	assert.NotContains(t, out, DefaultTestPassword)
	assert.NotContains(t, out, DefaultTestAuthToken)
	assert.Contains(t, out, "eyJh****")
}

package config

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// Settings is the effective configuration, resolved once and read-only afterwards.
type Settings struct {
	BaseURL           string
	ContentType       string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	RetryAttempts     int
	SchemaFile        string
	AuthType          AuthType
	AuthHeader        string
	TestUserID        int
	TestUsername      string
	TestPassword      string
	TestAuthToken     string
	RequestLogging    bool
	ResponseLogging   bool

	values  map[string]string
	sources map[string]SourceKind
}

type ValidationError struct {
	Field   string
	Message string
}

// Returns the string representation of validation error
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks resolved settings.
type Validator interface {
	Validate(s *Settings) []ValidationError
}

// DefaultValidators are applied by Load.
var DefaultValidators = []Validator{
	&EndpointValidator{},
	&TimeoutValidator{},
	&AuthValidator{},
}

// Load resolves every known key and returns typed, validated settings.
// Extra validators run after DefaultValidators.
func Load(r *Resolver, validators ...Validator) (*Settings, error) {
	s := &Settings{
		values:  make(map[string]string, len(KnownKeys)),
		sources: make(map[string]SourceKind, len(KnownKeys)),
	}

	get := func(key, def string) string {
		v, src := r.lookup(key, def)
		s.values[key] = v
		s.sources[key] = src
		return v
	}

	var parseErrs []ValidationError
	millis := func(key, def string) time.Duration {
		raw := get(key, def)
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			parseErrs = append(parseErrs, ValidationError{Field: key, Message: fmt.Sprintf("not an integer: %q", raw)})
			return 0
		}
		return time.Duration(n) * time.Millisecond
	}
	integer := func(key, def string) int {
		raw := get(key, def)
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			parseErrs = append(parseErrs, ValidationError{Field: key, Message: fmt.Sprintf("not an integer: %q", raw)})
		}
		return n
	}
	boolean := func(key, def string) bool {
		raw := get(key, def)
		// Anything other than "true" is false, as Boolean.parseBoolean would have it.
		return strings.EqualFold(strings.TrimSpace(raw), "true")
	}

	s.BaseURL = get(KeyBaseURL, DefaultBaseURL)
	s.ContentType = get(KeyContentType, DefaultContentType)
	s.ConnectionTimeout = millis(KeyConnectionTimeout, DefaultConnectionTimeout)
	s.RequestTimeout = millis(KeyRequestTimeout, DefaultRequestTimeout)
	s.RetryAttempts = integer(KeyRetryAttempts, DefaultRetryAttempts)
	s.SchemaFile = get(KeySchemaFile, DefaultSchemaFile)
	s.AuthType = AuthType(strings.ToLower(get(KeyAuthType, DefaultAuthType)))
	s.AuthHeader = get(KeyAuthHeader, DefaultAuthHeader)
	s.TestUserID = integer(KeyTestUserID, DefaultTestUserID)
	s.TestUsername = get(KeyTestUsername, DefaultTestUsername)
	s.TestPassword = get(KeyTestPassword, DefaultTestPassword)
	s.TestAuthToken = get(KeyTestAuthToken, DefaultTestAuthToken)
	s.RequestLogging = boolean(KeyRequestLogging, DefaultRequestLogging)
	s.ResponseLogging = boolean(KeyResponseLogging, DefaultResponseLogging)

	allErrors := parseErrs
	for _, v := range append(append([]Validator(nil), DefaultValidators...), validators...) {
		allErrors = append(allErrors, v.Validate(s)...)
	}
	if len(allErrors) > 0 {
		return nil, errors.WrapError(
			fmt.Errorf("validation errors: %v", allErrors),
			errors.ErrConfiguration,
			"load settings",
		)
	}

	return s, nil
}

// Value returns the raw resolved string for key.
func (s *Settings) Value(key string) string {
	return s.values[key]
}

// Source returns where key's value came from.
func (s *Settings) Source(key string) SourceKind {
	return s.sources[key]
}

// Auth returns the auth configuration selected by graphql.auth.type.
func (s *Settings) Auth() *Auth {
	switch s.AuthType {
	case AuthTypeBearer:
		return &Auth{Type: AuthTypeBearer, Bearer: &BearerAuth{Token: s.TestAuthToken}}
	case AuthTypeBasic:
		return &Auth{Type: AuthTypeBasic, Basic: &BasicAuth{Username: s.TestUsername, Password: s.TestPassword}}
	case AuthTypeAPIKey:
		return &Auth{Type: AuthTypeAPIKey, APIKey: &APIKeyAuth{Header: s.AuthHeader, Value: s.TestAuthToken}}
	default:
		return nil
	}
}

// Describe writes every known key, its effective value and source.
// Secrets are redacted.
func (s *Settings) Describe(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "=== Test Configuration ==="); err != nil {
		return err
	}
	for _, key := range KnownKeys {
		if _, err := fmt.Fprintf(w, "%-30s %-50s (%s)\n", key, s.Redacted(key), s.sources[key]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "==========================")
	return err
}

// Redacted is Value with secrets masked.
func (s *Settings) Redacted(key string) string {
	value := s.values[key]
	if secretKeys[key] && value != "" {
		return redact(value)
	}
	return value
}

func redact(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return v[:4] + "****"
}

// EndpointValidator requires an absolute http(s) endpoint and a content type.
type EndpointValidator struct{}

func (v *EndpointValidator) Validate(s *Settings) []ValidationError {
	var errs []ValidationError
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, ValidationError{Field: KeyBaseURL, Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", s.BaseURL)})
	}
	if s.ContentType == "" {
		errs = append(errs, ValidationError{Field: KeyContentType, Message: "is required"})
	}
	return errs
}

// TimeoutValidator checks timeouts and retry attempts.
type TimeoutValidator struct{}

func (v *TimeoutValidator) Validate(s *Settings) []ValidationError {
	var errs []ValidationError
	if s.ConnectionTimeout < 0 {
		errs = append(errs, ValidationError{Field: KeyConnectionTimeout, Message: "must not be negative"})
	}
	if s.RequestTimeout < 0 {
		errs = append(errs, ValidationError{Field: KeyRequestTimeout, Message: "must not be negative"})
	}
	if s.RetryAttempts < 1 {
		errs = append(errs, ValidationError{Field: KeyRetryAttempts, Message: "must be at least 1"})
	}
	return errs
}

// AuthValidator handles authentication validation
type AuthValidator struct{}

func (v *AuthValidator) Validate(s *Settings) []ValidationError {
	var errs []ValidationError
	switch s.AuthType {
	case AuthTypeNone:
	case AuthTypeBearer:
		if s.TestAuthToken == "" {
			errs = append(errs, ValidationError{Field: KeyTestAuthToken, Message: "is required for bearer auth"})
		}
	case AuthTypeBasic:
		if s.TestUsername == "" {
			errs = append(errs, ValidationError{Field: KeyTestUsername, Message: "is required for basic auth"})
		}
	case AuthTypeAPIKey:
		if s.AuthHeader == "" {
			errs = append(errs, ValidationError{Field: KeyAuthHeader, Message: "is required for api_key auth"})
		}
		if s.TestAuthToken == "" {
			errs = append(errs, ValidationError{Field: KeyTestAuthToken, Message: "is required for api_key auth"})
		}
	default:
		errs = append(errs, ValidationError{Field: KeyAuthType, Message: fmt.Sprintf("unknown auth type: %s", s.AuthType)})
	}
	return errs
}

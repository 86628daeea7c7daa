package graphql

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/transport/rest"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPDoer swaps the underlying HTTPDoer. Timeouts and retries are then
// the doer's business.
func WithHTTPDoer(doer rest.HTTPDoer) ClientOption {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithTimeout bounds a whole request.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithConnectTimeout bounds dialing and the TLS handshake.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = timeout
	}
}

// WithRetry enables retries of transient failures. One attempt means no retry.
func WithRetry(attempts int) ClientOption {
	return func(c *Client) {
		c.retryAttempts = attempts
	}
}

// WithHeader adds a header to every GraphQL request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithContentType overrides the request content type.
func WithContentType(contentType string) ClientOption {
	return func(c *Client) {
		if contentType != "" {
			c.contentType = contentType
		}
	}
}

// WithAuthHandler sets a custom auth handler.
func WithAuthHandler(h auth.Handler) ClientOption {
	return func(c *Client) {
		c.authHandler = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestLogging logs every outgoing envelope.
func WithRequestLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.requestLogging = enabled
	}
}

// WithResponseLogging logs every response body.
func WithResponseLogging(enabled bool) ClientOption {
	return func(c *Client) {
		c.responseLogging = enabled
	}
}

// WithTracerProvider sets where request spans go. The global provider is
// used otherwise.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

package graphql

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/errors"
	"github.com/saturnines/gqlprobe/pkg/extract"
	"github.com/saturnines/gqlprobe/pkg/transport/rest"
)

const instrumentationName = "github.com/saturnines/gqlprobe/pkg/transport/graphql"

// Client executes GraphQL operations against a single endpoint.
type Client struct {
	endpoint        string
	doer            rest.HTTPDoer
	timeout         time.Duration
	connectTimeout  time.Duration
	retryAttempts   int
	headers         map[string]string
	contentType     string
	authHandler     auth.Handler
	logger          *slog.Logger
	requestLogging  bool
	responseLogging bool
	tracer          trace.Tracer
}

// NewClient creates a Client for endpoint. Without WithHTTPDoer it builds an
// *http.Client from the configured timeouts, wrapped in a RetryTransport
// when WithRetry asks for more than one attempt.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:      endpoint,
		timeout:       30 * time.Second,
		retryAttempts: 1,
		headers:       make(map[string]string),
		contentType:   "application/json",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.tracer == nil {
		c.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	if c.doer == nil {
		c.doer = c.newHTTPClient()
	}
	return c
}

func (c *Client) newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.connectTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   c.connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = c.connectTimeout
	}

	var rt http.RoundTripper = transport
	if c.retryAttempts > 1 {
		rt = rest.NewRetryTransport(transport, rest.DefaultRetryConfig(c.retryAttempts))
	}

	return &http.Client{
		Timeout:   c.timeout,
		Transport: rt,
	}
}

// Endpoint returns the target URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send posts the envelope and returns the raw response. Only transport
// failures are errors here; HTTP status and GraphQL errors are left to the
// caller to assert on.
func (c *Client) Send(ctx context.Context, env Envelope) (*Response, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, err
	}

	opType := operationType(env.Query)
	ctx, span := c.tracer.Start(ctx, "graphql."+opType,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("graphql.operation.type", opType),
			attribute.String("graphql.operation.name", env.OperationName),
			attribute.String("http.url", c.endpoint),
		),
	)
	defer span.End()

	if c.requestLogging {
		c.logger.Info("graphql request", "endpoint", c.endpoint, "body", string(body))
	}

	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers["Content-Type"] = c.contentType

	start := time.Now()
	httpResp, err := rest.RequestHelper(ctx, c.doer, http.MethodPost, c.endpoint, "", headers, body, c.authHandler)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.logger.Error("graphql request failed", "endpoint", c.endpoint, "error", err)
		return nil, errors.WrapError(err, errors.ErrHTTPRequest, "send graphql request")
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, errors.WrapError(err, errors.ErrHTTPResponse, "read graphql response")
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, httpResp.Status)
	}

	if c.responseLogging {
		c.logger.Info("graphql response",
			"status", httpResp.StatusCode,
			"elapsed", time.Since(start),
			"body", string(respBody),
		)
	}

	return &Response{
		Status: httpResp.StatusCode,
		Body:   respBody,
		Header: httpResp.Header,
	}, nil
}

// operationType returns the root operation keyword of a document, defaulting
// to query for the shorthand form.
func operationType(query string) string {
	q := strings.TrimSpace(query)
	for _, kw := range []string{"mutation", "subscription", "query"} {
		if strings.HasPrefix(q, kw) {
			return kw
		}
	}
	return "query"
}

// Response is a received GraphQL response.
type Response struct {
	Status int
	Body   []byte
	Header http.Header

	decoded bool
	doc     interface{}
	err     error
}

// JSON decodes the body. The result is cached.
func (r *Response) JSON() (interface{}, error) {
	if !r.decoded {
		r.decoded = true
		if err := json.Unmarshal(r.Body, &r.doc); err != nil {
			r.err = errors.WrapError(err, errors.ErrHTTPResponse, "decode graphql response")
		}
	}
	return r.doc, r.err
}

// Errors returns the response's GraphQL errors list, if any.
func (r *Response) Errors() ([]errors.GraphQLError, error) {
	var payload struct {
		Errors []errors.GraphQLError `json:"errors"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return nil, errors.WrapError(err, errors.ErrHTTPResponse, "decode graphql errors")
	}
	return payload.Errors, nil
}

// Err returns a *errors.RemoteError when the response carries GraphQL
// errors, nil otherwise.
func (r *Response) Err() error {
	gqlErrs, err := r.Errors()
	if err != nil {
		return err
	}
	if len(gqlErrs) > 0 {
		return &errors.RemoteError{Status: r.Status, Errors: gqlErrs}
	}
	return nil
}

// Path extracts a value from the decoded body.
func (r *Response) Path(path string) (interface{}, bool) {
	doc, err := r.JSON()
	if err != nil {
		return nil, false
	}
	return extract.Path(doc, path)
}

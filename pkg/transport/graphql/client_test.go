package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/saturnines/gqlprobe/pkg/auth"
	"github.com/saturnines/gqlprobe/pkg/errors"
)

func TestClient_Send(t *testing.T) {
	var got Envelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "gqlprobe", r.Header.Get("X-Client"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"createUser":{"id":41,"firstName":"Ann"}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL,
		WithHeader("X-Client", "gqlprobe"),
		WithAuthHandler(auth.NewBearerAuth("tok")),
	)

	env, err := createUser().Envelope()
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), env)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, env.Query, got.Query)
	assert.Nil(t, got.Variables)
	assert.NoError(t, resp.Err())

	id, ok := resp.Path("data.createUser.id")
	assert.True(t, ok)
	assert.Equal(t, float64(41), id)

	_, ok = resp.Path("data.createUser.email")
	assert.False(t, ok)
}

func TestClient_RemoteErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":null,"errors":[{"message":"User not found","path":["updateUser"]}]}`)
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Send(context.Background(), Envelope{Query: "mutation { updateUser(id: 0) { id } }"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	gqlErrs, err := resp.Errors()
	require.NoError(t, err)
	require.Len(t, gqlErrs, 1)
	assert.Equal(t, "User not found", gqlErrs[0].Message)

	err = resp.Err()
	assert.True(t, errors.Is(err, errors.ErrRemote))
	var remote *errors.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Contains(t, remote.Error(), "User not found")
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url).Send(context.Background(), Envelope{Query: "{ ping }"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrHTTPRequest))
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Send(context.Background(), Envelope{Query: "{ ping }"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_RetryWhenEnabled(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"ping":"pong"}}`)
	}))
	defer server.Close()

	resp, err := NewClient(server.URL, WithRetry(2)).Send(context.Background(), Envelope{Query: "{ ping }"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_Logging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"ping":"pong"}}`)
	}))
	defer server.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := NewClient(server.URL,
		WithLogger(logger),
		WithRequestLogging(true),
		WithResponseLogging(false),
	).Send(context.Background(), Envelope{Query: "{ ping }"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "graphql request")
	assert.NotContains(t, out, "graphql response")
}

func TestClient_RecordsSpan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"deleteUser":{"id":5}}}`)
	}))
	defer server.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	env, err := NewBuilder().MutationOperation("deleteUser").Argument("id", 5).Fields("id").Envelope()
	require.NoError(t, err)

	_, err = NewClient(server.URL, WithTracerProvider(tp)).Send(context.Background(), env)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "graphql.mutation", spans[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "mutation", attrs["graphql.operation.type"])
	assert.Equal(t, int64(200), attrs["http.status_code"])
}

func TestResponse_InvalidJSON(t *testing.T) {
	resp := &Response{Status: http.StatusBadGateway, Body: []byte("<html>bad gateway</html>")}

	_, err := resp.JSON()
	assert.True(t, errors.Is(err, errors.ErrHTTPResponse))

	_, ok := resp.Path("data")
	assert.False(t, ok)
	assert.True(t, errors.Is(resp.Err(), errors.ErrHTTPResponse))
}

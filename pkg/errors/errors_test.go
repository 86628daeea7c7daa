package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorMatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := WrapError(cause, ErrHTTPRequest, "send request")

	assert.True(t, Is(err, ErrHTTPRequest))
	assert.True(t, Is(err, cause))
	assert.False(t, Is(err, ErrBuild))
	assert.Contains(t, err.Error(), "send request")
}

func TestRemoteError(t *testing.T) {
	err := &RemoteError{
		Status: 200,
		Errors: []GraphQLError{{Message: "user not found"}, {Message: "bad id"}},
	}

	assert.True(t, Is(err, ErrRemote))
	assert.Contains(t, err.Error(), "2 error(s)")
	assert.Contains(t, err.Error(), "user not found; bad id")

	wrapped := fmt.Errorf("scenario failed: %w", err)
	var re *RemoteError
	assert.True(t, As(wrapped, &re))
	assert.Len(t, re.Errors, 2)
}

package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	for _, s := range []string{"openai", "anthropic", "gemini"} {
		kind, err := ParseKind(s)
		assert.NoError(t, err)
		assert.Equal(t, Kind(s), kind)
	}

	_, err := ParseKind("cohere")
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"retryable call error", &CallError{StatusCode: 429, Retryable: true}, true},
		{"non-retryable call error", &CallError{StatusCode: 401, Retryable: false}, false},
		{"wrapped call error", &CallError{StatusCode: 503, Retryable: true, Err: errors.New("overloaded")}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRetryable(tc.err))
		})
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, retryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		assert.False(t, retryableStatus(code), "status %d", code)
	}
}

func TestRetryableGeminiMessage(t *testing.T) {
	assert.True(t, retryableGeminiMessage("googleapi: Error 429: RESOURCE_EXHAUSTED"))
	assert.True(t, retryableGeminiMessage("rpc error: code = Unavailable desc = 503 server error"))
	assert.False(t, retryableGeminiMessage("googleapi: Error 400: invalid argument"))
}

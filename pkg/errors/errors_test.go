package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "rate_limit error (code 429): slow down", New(ErrorTypeRateLimit, 429, "slow down").Error())
	assert.Equal(t, "parse error: bad timestamp", Parse(nil, "bad timestamp").Error())
}

func TestTypeThroughWrapping(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("fetch page: %w", Transport(cause, "GET failed"))

	assert.True(t, IsType(err, ErrorTypeTransport))
	assert.False(t, IsType(err, ErrorTypeParse))
	assert.Equal(t, ErrorTypeTransport, TypeOf(err))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType  ErrorType
		expected bool
	}{
		{ErrorTypeTransport, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeMalformedInput, false},
		{ErrorTypeParse, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.errType))
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	for code, want := range map[int]bool{0: true, 429: true, 503: true, 599: true, 401: false, 404: false, 400: false} {
		assert.Equal(t, want, IsRetryableStatusCode(code), "status %d", code)
	}
}

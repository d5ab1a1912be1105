package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognitionError_Unwrap(t *testing.T) {
	localErr := fmt.Errorf("ollama: %w", ErrModelUnavailable)
	remoteErr := fmt.Errorf("openai: %w", ErrNetwork)

	err := error(&RecognitionError{
		Kind:      KindNoUsablePath,
		LocalErr:  localErr,
		RemoteErr: remoteErr,
	})

	assert.ErrorIs(t, err, ErrNoUsablePath)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrParse)

	var recErr *RecognitionError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &recErr)
	assert.Equal(t, KindNoUsablePath, recErr.Kind)

	assert.Contains(t, err.Error(), "no_usable_path")
	assert.Contains(t, err.Error(), "local model unavailable")
	assert.Contains(t, err.Error(), "network error")
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want string
	}{
		{
			name: "explicit user error",
			err:  NewUserError("Image too large", errors.New("413")),
			want: "Image too large",
		},
		{
			name: "no usable path",
			err:  &RecognitionError{Kind: KindNoUsablePath},
			want: RecognitionFailedMessage,
		},
		{
			name: "invalid image",
			err:  fmt.Errorf("decode: %w", ErrInvalidImage),
			want: RecognitionFailedMessage,
		},
		{
			name: "canceled",
			err:  context.Canceled,
			want: "Recognition was interrupted. Please try again.",
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: "Something went wrong. Please try again.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("503"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("400"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

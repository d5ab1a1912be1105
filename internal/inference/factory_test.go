package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalClassifier(t *testing.T) {
	c, err := NewLocalClassifier(Config{Provider: "ollama"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OllamaClassifier{}, c)

	c, err = NewLocalClassifier(Config{Provider: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewLocalClassifier(Config{Provider: "coreml"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported local provider")
}

func TestNewRemoteAnalyzer(t *testing.T) {
	ctx := context.Background()

	a, err := NewRemoteAnalyzer(ctx, Config{Provider: "OpenAI", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIAnalyzer{}, a)

	a, err = NewRemoteAnalyzer(ctx, Config{Provider: "none"}, nil)
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = NewRemoteAnalyzer(ctx, Config{Provider: "openai"}, nil)
	require.Error(t, err)

	_, err = NewRemoteAnalyzer(ctx, Config{Provider: "gemini"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported remote provider")
}

package ai_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/issuekit/ragvault/internal/ai"
)

func TestNewProviderUnknown(t *testing.T) {
	_, err := ai.NewProvider("does-not-exist", map[string]interface{}{})
	require.Error(t, err)

	_, err = ai.NewProvider("", nil)
	require.Error(t, err)
}

func TestRegisteredProviders(t *testing.T) {
	for _, name := range []string{"gemini", "openai"} {
		provider, err := ai.NewProvider(name, map[string]interface{}{"api_key": ""})
		require.NoError(t, err)
		require.Equal(t, name, provider.Name())

		_, err = provider.Embed(context.Background(), "some-model", "text")
		require.ErrorIs(t, err, ai.ErrUnavailable, "missing api key must report unavailable")
	}
}

func TestEmbedderBindsModel(t *testing.T) {
	provider, err := ai.NewProvider("openai", map[string]interface{}{"api_key": ""})
	require.NoError(t, err)
	embedder := ai.NewEmbedder(provider, "text-embedding-3-small")
	require.Equal(t, "text-embedding-3-small", embedder.ModelName())
}

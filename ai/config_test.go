package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "none", cfg.APIKey)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ScoringModel)
	assert.Equal(t, DefaultEmbeddingBatchSize, cfg.EmbeddingBatchSize)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
		assert.Equal(t, 25, cfg.EmbeddingBatchSize)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))
		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
	})

	t.Run("with custom models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithScoringModel("gpt-4o-mini"),
		)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ScoringModel)
	})

	t.Run("with api key and batch size", func(t *testing.T) {
		cfg := NewConfig(WithAPIKey("secret"), WithEmbeddingBatchSize(10))
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, 10, cfg.EmbeddingBatchSize)
	})
}

func TestConfigNormalize(t *testing.T) {
	t.Run("adds v1 suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("strips trailing slash before suffix", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("leaves v1 suffix alone", func(t *testing.T) {
		cfg := &Config{Host: "http://localhost:11434/v1"}
		cfg.Normalize()
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	t.Run("fills api key and batch size", func(t *testing.T) {
		cfg := &Config{Host: "http://x/v1"}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.APIKey)
		assert.Equal(t, DefaultEmbeddingBatchSize, cfg.EmbeddingBatchSize)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := &Config{EmbeddingModel: "e", ScoringModel: "s"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing embedding model", func(t *testing.T) {
		cfg := &Config{Host: "http://x/v1", ScoringModel: "s"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing scoring model", func(t *testing.T) {
		cfg := &Config{Host: "http://x/v1", EmbeddingModel: "e"}
		assert.Error(t, cfg.Validate())
	})
}

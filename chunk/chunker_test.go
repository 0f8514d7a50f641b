package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStrategies = []Strategy{
	StrategyFixedSize, StrategySentence, StrategyParagraph,
	StrategyRecursive, StrategyMarkdown, StrategySlidingWindow,
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("zero chunk size", func(t *testing.T) {
		cfg := Config{Strategy: StrategyFixedSize, ChunkSize: 0}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunkSize)
	})

	t.Run("negative overlap", func(t *testing.T) {
		cfg := Config{Strategy: StrategyFixedSize, ChunkSize: 100, Overlap: -1}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidOverlap)
	})

	t.Run("overlap equal to chunk size", func(t *testing.T) {
		cfg := Config{Strategy: StrategyFixedSize, ChunkSize: 100, Overlap: 100}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidOverlap)
	})

	t.Run("overlap above chunk size", func(t *testing.T) {
		cfg := Config{Strategy: StrategySentence, ChunkSize: 100, Overlap: 150}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidOverlap)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		cfg := Config{Strategy: "semantic", ChunkSize: 100}
		assert.ErrorIs(t, cfg.Validate(), ErrUnknownStrategy)
	})
}

func TestNew_AllStrategies(t *testing.T) {
	strategies := []Strategy{
		StrategyFixedSize, StrategySentence, StrategyParagraph,
		StrategyRecursive, StrategyMarkdown, StrategySlidingWindow,
	}
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(Config{Strategy: s, ChunkSize: 100, Overlap: 10})
			require.NoError(t, err)
			assert.Equal(t, s, c.Strategy())
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Strategy: StrategyRecursive, ChunkSize: 50, Overlap: 50})
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestChunk_EmptyInput(t *testing.T) {
	strategies := []Strategy{
		StrategyFixedSize, StrategySentence, StrategyParagraph,
		StrategyRecursive, StrategyMarkdown, StrategySlidingWindow,
	}
	inputs := map[string]string{
		"empty":           "",
		"whitespace only": "   \n\t \n  ",
	}
	for _, s := range strategies {
		c, err := New(Config{Strategy: s, ChunkSize: 100, Overlap: 10})
		require.NoError(t, err)
		for name, input := range inputs {
			t.Run(string(s)+"/"+name, func(t *testing.T) {
				chunks, err := c.Chunk(input)
				require.NoError(t, err)
				assert.Empty(t, chunks)
			})
		}
	}
}

func TestChunkDocument_Stamping(t *testing.T) {
	c, err := New(Config{Strategy: StrategyFixedSize, ChunkSize: 10, Overlap: 2})
	require.NoError(t, err)

	meta := map[string]string{"lang": "en"}
	chunks, err := c.ChunkDocument("abcdefghijklmnopqrstuvwxyz", "doc42", meta)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, "doc42", ch.SourceDocId)
		assert.Equal(t, i, ch.SequenceIndex)
		assert.Equal(t, "doc42_chunk_"+itoa(i), ch.Id)
		assert.Equal(t, "en", ch.Metadata["lang"])
	}

	// Each chunk owns its metadata copy.
	chunks[0].Metadata["lang"] = "de"
	assert.Equal(t, "en", chunks[1].Metadata["lang"])
	assert.Equal(t, "en", meta["lang"])
}

func TestChunk_SequenceStrictlyIncreasing(t *testing.T) {
	c, err := New(Config{Strategy: StrategyRecursive, ChunkSize: 40, Overlap: 5})
	require.NoError(t, err)

	chunks, err := c.Chunk("One sentence here. Another one follows! And a third, with a clause; then more. Final words")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
	}
}

func TestFixedSize_WindowGeometry(t *testing.T) {
	c, err := New(Config{Strategy: StrategyFixedSize, ChunkSize: 300, Overlap: 50})
	require.NoError(t, err)

	text := strings.Repeat("0123456789", 100)
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(text), chunks[3].EndOffset)
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1].EndOffset-50, chunks[i].StartOffset)
	}
	for _, ch := range chunks[:3] {
		assert.Equal(t, 300, len(ch.Content))
	}
	assert.Equal(t, 250, len(chunks[3].Content))
}

func TestWindowStrategies_LosslessCoverage(t *testing.T) {
	text := strings.Repeat("lossless coverage of every source position ", 20)
	for _, s := range []Strategy{StrategyFixedSize, StrategySlidingWindow} {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(Config{Strategy: s, ChunkSize: 100, Overlap: 10})
			require.NoError(t, err)

			chunks, err := c.Chunk(text)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			assert.Equal(t, 0, chunks[0].StartOffset)
			assert.Equal(t, len(text), chunks[len(chunks)-1].EndOffset)
			for i := 1; i < len(chunks); i++ {
				// No gap between consecutive windows.
				assert.LessOrEqual(t, chunks[i].StartOffset, chunks[i-1].EndOffset)
				assert.Greater(t, chunks[i].EndOffset, chunks[i-1].EndOffset)
			}
		})
	}
}

func TestChunk_SizeBound(t *testing.T) {
	text := "Short opening sentence. Another brief one follows! A third asks a question? Yes.\n\n" +
		"# A heading\n\nMore prose sits here. It stays short on purpose. Commas, clauses; both appear.\n\n" +
		strings.Repeat("unbrokenrun", 30) + "\n\nShort tail."
	const size, overlap = 100, 10

	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(Config{Strategy: s, ChunkSize: size, Overlap: overlap})
			require.NoError(t, err)

			chunks, err := c.Chunk(text)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for _, ch := range chunks {
				assert.LessOrEqual(t, len([]rune(ch.Content)), size+overlap,
					"chunk [%d,%d) too long", ch.StartOffset, ch.EndOffset)
			}
		})
	}
}

func TestChunk_ContentMatchesSpan(t *testing.T) {
	text := "Mixed scripts: caffé, naïve résumé. 機械学習の分野では、検索が重要です。" +
		"Back to ASCII with some trailing prose to cross chunk boundaries. " +
		strings.Repeat("словами на кириллице ", 10)

	for _, s := range allStrategies {
		t.Run(string(s), func(t *testing.T) {
			c, err := New(Config{Strategy: s, ChunkSize: 60, Overlap: 8})
			require.NoError(t, err)

			chunks, err := c.Chunk(text)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for _, ch := range chunks {
				assert.Equal(t, text[ch.StartOffset:ch.EndOffset], ch.Content)
			}
		})
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

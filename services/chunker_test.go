package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestChunkerDeterministic(t *testing.T) {
	chunker := NewChunker(100, 20)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)

	first, err := chunker.Chunk(text, "https://example.com")
	require.NoError(t, err)
	second, err := chunker.Chunk(text, "https://example.com")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestChunkerSizeBound(t *testing.T) {
	chunker := NewChunker(100, 20)
	text := strings.Repeat("Paragraph one has several sentences in it. Another sentence follows.\n\n", 10)

	chunks, err := chunker.Chunk(text, "https://example.com")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), 100,
			"chunk exceeds target size: %q", chunk.Text)
	}
}

func TestChunkerSplitsOversizedToken(t *testing.T) {
	// An unbroken run longer than the target falls through to the
	// character-level separator; nothing is lost.
	chunker := NewChunker(10, 0)
	token := strings.Repeat("x", 25)

	chunks, err := chunker.Chunk(token, "https://example.com")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	var rejoined strings.Builder
	for _, chunk := range chunks {
		require.LessOrEqual(t, utf8.RuneCountInString(chunk.Text), 10)
		rejoined.WriteString(chunk.Text)
	}
	require.Equal(t, token, rejoined.String())
}

func TestChunkerTagsChunks(t *testing.T) {
	chunker := NewChunker(50, 10)
	text := strings.Repeat("Some words here. ", 20)

	chunks, err := chunker.Chunk(text, "https://example.com/docs")
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		require.Equal(t, "https://example.com/docs", chunk.SourceURL)
		require.Equal(t, i, chunk.SequenceIndex)
	}
}

func TestChunkerEmptyInput(t *testing.T) {
	chunker := NewChunker(100, 20)

	chunks, err := chunker.Chunk("", "https://example.com")
	require.NoError(t, err)
	require.Empty(t, chunks)
}

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rag-chatbot-backend/models"
)

func record(text string, vector []float32) models.IndexedRecord {
	return models.IndexedRecord{
		Chunk:  models.DocumentChunk{Text: text, SourceURL: "https://example.com"},
		Vector: vector,
	}
}

func TestMemoryIndexOrdering(t *testing.T) {
	index := NewMemoryIndex()
	require.NoError(t, index.Upsert(context.Background(), []models.IndexedRecord{
		record("orthogonal", []float32{0, 1, 0}),
		record("exact", []float32{1, 0, 0}),
		record("close", []float32{0.9, 0.1, 0}),
	}))

	hits, err := index.Query(context.Background(), []float32{1, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	require.Equal(t, "exact", hits[0].Chunk.Text)
	require.Equal(t, "close", hits[1].Chunk.Text)
	require.Equal(t, "orthogonal", hits[2].Chunk.Text)

	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestMemoryIndexTopKBound(t *testing.T) {
	index := NewMemoryIndex()
	require.NoError(t, index.Upsert(context.Background(), []models.IndexedRecord{
		record("a", []float32{1, 0}),
		record("b", []float32{0, 1}),
	}))

	hits, err := index.Query(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestMemoryIndexDefaultK(t *testing.T) {
	index := NewMemoryIndex()
	records := make([]models.IndexedRecord, 10)
	for i := range records {
		records[i] = record("chunk", []float32{float32(i + 1), 1})
	}
	require.NoError(t, index.Upsert(context.Background(), records))

	hits, err := index.Query(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, hits, DefaultTopK)
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	index := NewMemoryIndex()
	require.NoError(t, index.Upsert(context.Background(), []models.IndexedRecord{
		record("a", []float32{1, 0, 0}),
	}))

	err := index.Upsert(context.Background(), []models.IndexedRecord{
		record("b", []float32{1, 0}),
	})
	require.Error(t, err)
}

func TestMemoryIndexEmptyQuery(t *testing.T) {
	index := NewMemoryIndex()

	hits, err := index.Query(context.Background(), []float32{1, 0}, 4)
	require.NoError(t, err)
	require.Empty(t, hits)
}

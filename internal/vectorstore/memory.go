package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"rag-chatbot-backend/models"
)

// MemoryIndex is a brute-force cosine-similarity store. Records live for
// the lifetime of the process; re-ingesting the same content adds duplicate
// records rather than replacing them.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	records   []models.IndexedRecord
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (m *MemoryIndex) Upsert(ctx context.Context, records []models.IndexedRecord) error {
	if len(records) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(records[0].Vector)
	}
	for _, r := range records {
		if len(r.Vector) != m.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, index has %d", len(r.Vector), m.dimension)
		}
	}

	m.records = append(m.records, records...)
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]models.ScoredChunk, 0, len(m.records))
	for _, r := range m.records {
		scored = append(scored, models.ScoredChunk{
			Chunk: r.Chunk,
			Score: cosineSimilarity(vector, r.Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len reports the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

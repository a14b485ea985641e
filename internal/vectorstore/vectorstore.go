package vectorstore

import (
	"context"
	"errors"

	"rag-chatbot-backend/models"
)

// DefaultTopK is used when a query asks for a non-positive k.
const DefaultTopK = 4

// ErrIndexUnavailable is returned when the storage backend cannot serve a
// request. It is surfaced to the caller, never retried here.
var ErrIndexUnavailable = errors.New("vector index unavailable")

// Index stores embedded document chunks and answers nearest-neighbor
// queries. Results are ordered by descending similarity; ties break
// arbitrarily. Implementations must be safe for concurrent use.
type Index interface {
	Upsert(ctx context.Context, records []models.IndexedRecord) error
	Query(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error)
}

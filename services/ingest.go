package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chatbot-backend/internal/logger"
	"rag-chatbot-backend/internal/telemetry"
	"rag-chatbot-backend/internal/vectorstore"
	"rag-chatbot-backend/models"
)

// PageCrawler fetches linked pages from a seed URL up to a depth bound.
type PageCrawler interface {
	Crawl(ctx context.Context, seedURL string, maxDepth int) ([]models.RawDocument, error)
}

// BatchEmbedder turns a batch of texts into embedding vectors.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingestor runs the document ingestion pipeline:
// crawl -> normalize -> serialize -> chunk -> embed -> index.
type Ingestor struct {
	crawler  PageCrawler
	chunker  Chunker
	embedder BatchEmbedder
	index    vectorstore.Index
	maxDepth int
	metrics  *telemetry.Metrics
}

func NewIngestor(crawler PageCrawler, chunker Chunker, embedder BatchEmbedder, index vectorstore.Index, maxDepth int, metrics *telemetry.Metrics) *Ingestor {
	return &Ingestor{
		crawler:  crawler,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		maxDepth: maxDepth,
		metrics:  metrics,
	}
}

// Ingest crawls seedURL, stores the embedded chunks and reports how many
// were stored. Re-ingesting the same seed adds duplicate records; there is
// no content-addressed dedup. The operation succeeds or fails as a whole.
func (ing *Ingestor) Ingest(ctx context.Context, seedURL string) (models.IngestResult, error) {
	tracer := otel.Tracer("ingestion-pipeline")
	ctx, span := tracer.Start(ctx, "ingest")
	defer span.End()
	span.SetAttributes(attribute.String("ingest.seed_url", seedURL))

	start := time.Now()

	docs, err := ing.crawler.Crawl(ctx, seedURL, ing.maxDepth)
	if err != nil {
		return models.IngestResult{}, fmt.Errorf("crawl %s: %w", seedURL, err)
	}

	normalized := make([]models.NormalizedDocument, 0, len(docs))
	for _, doc := range docs {
		text, err := HTMLToText(doc.HTML)
		if err != nil {
			return models.IngestResult{}, fmt.Errorf("normalize %s: %w", doc.URL, err)
		}
		if text == "" {
			continue
		}
		normalized = append(normalized, models.NormalizedDocument{
			URL:   doc.URL,
			Title: doc.Title,
			Text:  text,
		})
	}
	if len(normalized) == 0 {
		logger.Info("ingest found no extractable text", "seed", seedURL, "pages", len(docs))
		return models.IngestResult{ChunkCount: 0}, nil
	}

	// The whole crawl batch is serialized into one blob before chunking, so
	// chunk boundaries are computed over all pages together and may span
	// page boundaries.
	blob, err := json.Marshal(normalized)
	if err != nil {
		return models.IngestResult{}, fmt.Errorf("serialize crawl batch: %w", err)
	}

	chunks, err := ing.chunker.Chunk(string(blob), seedURL)
	if err != nil {
		return models.IngestResult{}, fmt.Errorf("chunk crawl batch: %w", err)
	}
	if len(chunks) == 0 {
		return models.IngestResult{ChunkCount: 0}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := ing.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return models.IngestResult{}, fmt.Errorf("embed chunks: %w", err)
	}

	records := make([]models.IndexedRecord, len(chunks))
	for i := range chunks {
		records[i] = models.IndexedRecord{Chunk: chunks[i], Vector: vectors[i]}
	}

	if err := ing.index.Upsert(ctx, records); err != nil {
		return models.IngestResult{}, fmt.Errorf("index chunks: %w", err)
	}

	span.SetAttributes(attribute.Int("ingest.chunks", len(chunks)))
	ing.metrics.RecordIngest(len(docs), len(chunks))
	logger.Info("ingest complete",
		"seed", seedURL,
		"pages", len(docs),
		"chunks", len(chunks),
		"duration_ms", time.Since(start).Milliseconds())

	return models.IngestResult{ChunkCount: len(chunks)}, nil
}

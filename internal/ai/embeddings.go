package ai

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	genai "github.com/google/generative-ai-go/genai"
)

// The batch-embed endpoint rejects batches larger than 100 requests, so a
// full ingest is sent as a sequence of bounded sub-batches.
const maxEmbedBatchSize = 100

// EmbedText returns an embedding vector for a single text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns one embedding vector per input text, in input order.
// Inputs beyond the API's per-request batch limit are sent as sequential
// sub-batches. The caller is responsible for any retry policy; this adapter
// surfaces the first failure as-is.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.embed_contents")
	defer span.End()

	span.SetAttributes(
		attribute.String("gemini.model", c.embedModel),
		attribute.Int("gemini.batch_size", len(texts)),
	)

	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for _, batch := range splitEmbedBatches(texts) {
		batchVectors, err := c.embedBatch(ctx, batch)
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}
		vectors = append(vectors, batchVectors...)
	}
	return vectors, nil
}

// embedBatch issues one BatchEmbedContents call for at most
// maxEmbedBatchSize texts.
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Service: "embeddings", Err: err}
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.EmbeddingModel(c.embedModel)
		batch := model.NewBatch()
		for _, text := range texts {
			batch.AddContent(genai.Text(text))
		}
		return model.BatchEmbedContents(ctx, batch)
	})
	c.metrics.RecordModelCall("embed_contents", time.Since(start).Seconds(), err == nil)
	if err != nil {
		return nil, &UpstreamError{Service: "embeddings", Err: err}
	}

	resp := result.(*genai.BatchEmbedContentsResponse)
	if len(resp.Embeddings) != len(texts) {
		return nil, &UpstreamError{
			Service: "embeddings",
			Err:     fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, &UpstreamError{
				Service: "embeddings",
				Err:     fmt.Errorf("no embedding returned for text %d", i),
			}
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// splitEmbedBatches cuts texts into sub-batches of at most
// maxEmbedBatchSize, preserving order.
func splitEmbedBatches(texts []string) [][]string {
	if len(texts) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(texts)+maxEmbedBatchSize-1)/maxEmbedBatchSize)
	for start := 0; start < len(texts); start += maxEmbedBatchSize {
		end := start + maxEmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batches = append(batches, texts[start:end])
	}
	return batches
}

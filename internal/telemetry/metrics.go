package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing, so components can run without metrics in tests.
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	ChunksIndexed     metric.Int64Counter
	PagesCrawled      metric.Int64Counter
	ModelCallDuration metric.Float64Histogram
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-chatbot-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.indexed",
		metric.WithDescription("Total chunks stored in the vector index"),
	)
	if err != nil {
		return nil, err
	}

	pagesCrawled, err := meter.Int64Counter(
		"ingest.pages.crawled",
		metric.WithDescription("Total pages fetched during ingestion"),
	)
	if err != nil {
		return nil, err
	}

	modelCallDuration, err := meter.Float64Histogram(
		"gemini.call.duration",
		metric.WithDescription("Gemini API call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		ChunksIndexed:     chunksIndexed,
		PagesCrawled:      pagesCrawled,
		ModelCallDuration: modelCallDuration,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records the volume of a completed ingestion.
func (m *Metrics) RecordIngest(pages, chunks int) {
	if m == nil {
		return
	}
	m.PagesCrawled.Add(context.Background(), int64(pages))
	m.ChunksIndexed.Add(context.Background(), int64(chunks))
}

// RecordModelCall records one Gemini API call.
func (m *Metrics) RecordModelCall(operation string, duration float64, success bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("gemini.operation", operation),
		attribute.Bool("gemini.success", success),
	}

	m.ModelCallDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

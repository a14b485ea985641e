package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"rag-chatbot-backend/internal/config"
	"rag-chatbot-backend/internal/logger"
	"rag-chatbot-backend/internal/telemetry"
)

// Free-tier Gemini allowance; the limiter stays slightly under it.
const requestsPerMinute = 10

// Client wraps the Gemini API for both text generation and embeddings.
// Calls are guarded by a circuit breaker and a client-side rate limiter,
// and every call runs under an explicit deadline. Failures are not retried;
// each failure is terminal for the request that triggered it.
type Client struct {
	client     *genai.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	genModel   string
	embedModel string
	timeout    time.Duration
	metrics    *telemetry.Metrics
}

func NewClient(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)*0.9/60.0), 2)

	return &Client{
		client:     client,
		breaker:    breaker,
		limiter:    limiter,
		genModel:   cfg.GeminiModel,
		embedModel: cfg.GoogleEmbeddingsModel,
		timeout:    cfg.UpstreamTimeout,
		metrics:    metrics,
	}, nil
}

// GenerateText renders a single completion for the given prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_content")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	span.SetAttributes(
		attribute.String("gemini.model", c.genModel),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return "", &UpstreamError{Service: "llm", Err: err}
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.genModel)
		model.SetTemperature(0.7)
		model.SetMaxOutputTokens(2048)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	c.metrics.RecordModelCall("generate_content", time.Since(start).Seconds(), err == nil)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return "", &UpstreamError{Service: "llm", Err: err}
	}

	text := extractText(result.(*genai.GenerateContentResponse))
	if text == "" {
		span.SetAttributes(attribute.Bool("gemini.empty_response", true))
		return "", &UpstreamError{Service: "llm", Err: fmt.Errorf("empty completion")}
	}

	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	return text, nil
}

// extractText flattens the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	out := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out += string(text)
			}
		}
		break
	}
	return out
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-chatbot-backend/internal/logger"
	"rag-chatbot-backend/internal/session"
	"rag-chatbot-backend/internal/vectorstore"
	"rag-chatbot-backend/models"
)

// Generator produces a completion for a rendered prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder turns a single text into an embedding vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ChatService runs the conversational pipeline: load history, rewrite the
// question into a standalone one, retrieve context, synthesize the answer,
// then record the turn. A failure at any stage is terminal for the request
// and leaves the transcript untouched.
// lockStripes bounds the memory spent on per-identity locks. Identities
// hashing to the same stripe share a lock, which only over-serializes.
const lockStripes = 64

type ChatService struct {
	generator    Generator
	embedder     Embedder
	index        vectorstore.Index
	sessions     session.Store
	topK         int
	supportEmail string
	locks        [lockStripes]sync.Mutex
}

func NewChatService(generator Generator, embedder Embedder, index vectorstore.Index, sessions session.Store, topK int, supportEmail string) *ChatService {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	return &ChatService{
		generator:    generator,
		embedder:     embedder,
		index:        index,
		sessions:     sessions,
		topK:         topK,
		supportEmail: supportEmail,
	}
}

// pipelineContext carries one request's state through the stages. It lives
// for a single call and is never shared across requests.
type pipelineContext struct {
	Question         string
	History          []models.TranscriptEntry
	Standalone       string
	RetrievedContext string
	Answer           string
}

// Chat answers question for userID. Requests from the same identity are
// serialized by that identity's lock stripe so concurrent turns cannot
// interleave their read-modify-append cycles on the transcript.
func (s *ChatService) Chat(ctx context.Context, userID, question string) (string, error) {
	tracer := otel.Tracer("conversational-pipeline")
	ctx, span := tracer.Start(ctx, "chat")
	defer span.End()

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	history, err := s.sessions.History(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	pc := pipelineContext{Question: question, History: history}

	if pc, err = s.rewriteQuestion(ctx, pc); err != nil {
		return "", fmt.Errorf("rewrite question: %w", err)
	}
	if pc, err = s.retrieveContext(ctx, pc); err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	if pc, err = s.synthesizeAnswer(ctx, pc); err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}

	// Question and answer are recorded together, and only for answered
	// turns.
	err = s.sessions.Append(ctx, userID,
		models.TranscriptEntry{Speaker: models.SpeakerHuman, Text: question},
		models.TranscriptEntry{Speaker: models.SpeakerAssistant, Text: pc.Answer},
	)
	if err != nil {
		return "", fmt.Errorf("append history: %w", err)
	}

	span.SetAttributes(
		attribute.Int("chat.history_turns", len(history)),
		attribute.Int("chat.answer_chars", len(pc.Answer)),
	)
	logger.Debug("chat turn complete", "user", userID, "history_turns", len(history))

	return pc.Answer, nil
}

// rewriteQuestion turns (history, question) into a standalone question via
// one model call. An empty history still goes through the template.
func (s *ChatService) rewriteQuestion(ctx context.Context, pc pipelineContext) (pipelineContext, error) {
	prompt := renderStandalonePrompt(formatHistory(pc.History), pc.Question)
	standalone, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return pc, err
	}
	pc.Standalone = strings.TrimSpace(standalone)
	return pc, nil
}

// retrieveContext embeds the standalone question, queries the index and
// concatenates the hits into one context blob, highest similarity first.
// Overlapping chunk text is not deduplicated.
func (s *ChatService) retrieveContext(ctx context.Context, pc pipelineContext) (pipelineContext, error) {
	vector, err := s.embedder.EmbedText(ctx, pc.Standalone)
	if err != nil {
		return pc, err
	}

	hits, err := s.index.Query(ctx, vector, s.topK)
	if err != nil {
		return pc, err
	}

	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Chunk.Text)
	}
	pc.RetrievedContext = strings.Join(texts, "\n\n")
	return pc, nil
}

// synthesizeAnswer makes the final model call with the ORIGINAL question,
// the retrieved context and the history.
func (s *ChatService) synthesizeAnswer(ctx context.Context, pc pipelineContext) (pipelineContext, error) {
	prompt := renderAnswerPrompt(pc.RetrievedContext, formatHistory(pc.History), pc.Question, s.supportEmail)
	answer, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return pc, err
	}
	pc.Answer = strings.TrimSpace(answer)
	return pc, nil
}

func (s *ChatService) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

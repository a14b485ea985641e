package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rag-chatbot-backend/internal/session"
	"rag-chatbot-backend/internal/vectorstore"
	"rag-chatbot-backend/models"
)

// echoGenerator answers the rewrite prompt with a fixed standalone question
// and the synthesis prompt with the prompt itself, so retrieved context
// passes through to the final answer unchanged.
type echoGenerator struct {
	standalone string
	err        error
}

func (g *echoGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	if strings.Contains(prompt, "standalone question:") {
		return g.standalone, nil
	}
	return prompt, nil
}

type fixedEmbedder struct{}

func (fixedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func seededIndex(t *testing.T, texts ...string) *vectorstore.MemoryIndex {
	t.Helper()
	index := vectorstore.NewMemoryIndex()
	records := make([]models.IndexedRecord, len(texts))
	for i, text := range texts {
		records[i] = models.IndexedRecord{
			Chunk:  models.DocumentChunk{Text: text, SourceURL: "https://scrimba.com", SequenceIndex: i},
			Vector: []float32{1, 0, 0},
		}
	}
	require.NoError(t, index.Upsert(context.Background(), records))
	return index
}

func TestChatAnswersFromRetrievedContext(t *testing.T) {
	seeded := "Scrimba offers courses on web development."
	index := seededIndex(t, seeded)
	sessions := session.NewMemoryStore(0, 0)
	generator := &echoGenerator{standalone: "What does Scrimba offer?"}

	svc := NewChatService(generator, fixedEmbedder{}, index, sessions, 4, "help@scrimba.com")

	answer, err := svc.Chat(context.Background(), "10.0.0.1", "What does Scrimba offer?")
	require.NoError(t, err)
	require.Contains(t, answer, seeded)
}

func TestChatAppendsHistoryInOrder(t *testing.T) {
	index := seededIndex(t, "Scrimba offers courses on web development.")
	sessions := session.NewMemoryStore(0, 0)
	generator := &echoGenerator{standalone: "What does Scrimba offer?"}

	svc := NewChatService(generator, fixedEmbedder{}, index, sessions, 4, "help@scrimba.com")

	_, err := svc.Chat(context.Background(), "10.0.0.1", "What does Scrimba offer?")
	require.NoError(t, err)

	history, err := sessions.History(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.SpeakerHuman, history[0].Speaker)
	require.Equal(t, "What does Scrimba offer?", history[0].Text)
	require.Equal(t, models.SpeakerAssistant, history[1].Speaker)
}

func TestChatFailureLeavesHistoryUntouched(t *testing.T) {
	index := seededIndex(t, "Scrimba offers courses on web development.")
	sessions := session.NewMemoryStore(0, 0)
	generator := &echoGenerator{err: errors.New("model unavailable")}

	svc := NewChatService(generator, fixedEmbedder{}, index, sessions, 4, "help@scrimba.com")

	_, err := svc.Chat(context.Background(), "10.0.0.1", "What does Scrimba offer?")
	require.Error(t, err)

	history, err := sessions.History(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	require.Empty(t, history, "failed turns must not be recorded")
}

func TestChatPriorHistoryReachesPrompts(t *testing.T) {
	index := seededIndex(t, "Scrimba offers courses on web development.")
	sessions := session.NewMemoryStore(0, 0)
	require.NoError(t, sessions.Append(context.Background(), "10.0.0.1",
		models.TranscriptEntry{Speaker: models.SpeakerHuman, Text: "My name is Ada."},
		models.TranscriptEntry{Speaker: models.SpeakerAssistant, Text: "Nice to meet you, Ada!"},
	))

	generator := &echoGenerator{standalone: "What does Scrimba offer?"}
	svc := NewChatService(generator, fixedEmbedder{}, index, sessions, 4, "help@scrimba.com")

	answer, err := svc.Chat(context.Background(), "10.0.0.1", "What do they offer?")
	require.NoError(t, err)
	// Synthesis echoes its prompt, so the formatted history must be in it.
	require.Contains(t, answer, "Human: My name is Ada.")
	require.Contains(t, answer, "AI: Nice to meet you, Ada!")
}

func TestChatLocksAreStripedAndBounded(t *testing.T) {
	index := seededIndex(t, "Scrimba offers courses on web development.")
	sessions := session.NewMemoryStore(0, 0)
	svc := NewChatService(&echoGenerator{}, fixedEmbedder{}, index, sessions, 4, "help@scrimba.com")

	// The same identity always resolves to the same lock.
	require.Same(t, svc.lockFor("10.0.0.1"), svc.lockFor("10.0.0.1"))

	// Distinct identities resolve to a fixed pool of locks, so the lock
	// set cannot grow with the number of callers.
	distinct := make(map[*sync.Mutex]struct{})
	for i := 0; i < 10*lockStripes; i++ {
		distinct[svc.lockFor(fmt.Sprintf("10.0.%d.%d", i/256, i%256))] = struct{}{}
	}
	require.LessOrEqual(t, len(distinct), lockStripes)
}

func TestAnswerTemplateCarriesFallbackInstruction(t *testing.T) {
	// The fallback is a directive to the model, so all that can be checked
	// is that the rendered prompt carries the fixed apology and the
	// escalation contact even with empty context and history.
	prompt := renderAnswerPrompt("", "", "What is the meaning of life?", "help@scrimba.com")

	require.Contains(t, prompt, apologyPhrase)
	require.Contains(t, prompt, "help@scrimba.com")
	require.Contains(t, prompt, "What is the meaning of life?")
}

func TestStandaloneTemplateHandlesEmptyHistory(t *testing.T) {
	prompt := renderStandalonePrompt("", "What does Scrimba offer?")

	require.Contains(t, prompt, "if any")
	require.Contains(t, prompt, "What does Scrimba offer?")
}

func TestFormatHistory(t *testing.T) {
	require.Empty(t, formatHistory(nil))

	out := formatHistory([]models.TranscriptEntry{
		{Speaker: models.SpeakerHuman, Text: "hi"},
		{Speaker: models.SpeakerAssistant, Text: "hello"},
	})
	require.Equal(t, "Human: hi\nAI: hello", out)
}

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rag-chatbot-backend/models"
)

func human(text string) models.TranscriptEntry {
	return models.TranscriptEntry{Speaker: models.SpeakerHuman, Text: text}
}

func assistant(text string) models.TranscriptEntry {
	return models.TranscriptEntry{Speaker: models.SpeakerAssistant, Text: text}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour, 100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "10.0.0.1", human("first"), assistant("answer one")))
	require.NoError(t, store.Append(ctx, "10.0.0.1", human("second"), assistant("answer two")))

	history, err := store.History(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "first", history[0].Text)
	require.Equal(t, "answer two", history[3].Text)
}

func TestMemoryStoreUnknownIdentity(t *testing.T) {
	store := NewMemoryStore(time.Hour, 100)

	history, err := store.History(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestMemoryStoreIsolatesIdentities(t *testing.T) {
	store := NewMemoryStore(time.Hour, 100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "10.0.0.1", human("from one")))
	require.NoError(t, store.Append(ctx, "10.0.0.2", human("from two")))

	history, err := store.History(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "from one", history[0].Text)
}

func TestMemoryStoreTrimsToMaxEntries(t *testing.T) {
	store := NewMemoryStore(time.Hour, 4)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, "10.0.0.1",
			human(fmt.Sprintf("q%d", i)), assistant(fmt.Sprintf("a%d", i))))
	}

	history, err := store.History(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	require.Equal(t, "q3", history[0].Text)
	require.Equal(t, "a4", history[3].Text)
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	store := NewMemoryStore(20*time.Millisecond, 100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "10.0.0.1", human("hello")))
	time.Sleep(50 * time.Millisecond)

	history, err := store.History(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestMemoryStoreHistoryReturnsCopy(t *testing.T) {
	store := NewMemoryStore(time.Hour, 100)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "10.0.0.1", human("original")))

	history, _ := store.History(ctx, "10.0.0.1")
	history[0].Text = "mutated"

	again, _ := store.History(ctx, "10.0.0.1")
	require.Equal(t, "original", again[0].Text)
}

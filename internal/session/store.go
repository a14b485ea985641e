package session

import (
	"context"

	"rag-chatbot-backend/models"
)

// Store maps a user identity to its ordered conversation transcript.
// It is injected into the chat pipeline rather than being a module global,
// so the backing (in-process map, Redis) can be swapped by configuration.
// Implementations must be safe for concurrent use; serialization of
// read-modify-append cycles per identity is the caller's job.
type Store interface {
	// History returns the transcript for userID, oldest entry first.
	// An unknown identity yields an empty transcript, not an error.
	History(ctx context.Context, userID string) ([]models.TranscriptEntry, error)

	// Append adds entries to the end of userID's transcript, creating the
	// session on first use.
	Append(ctx context.Context, userID string, entries ...models.TranscriptEntry) error
}

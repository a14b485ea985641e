package session

import (
	"context"
	"sync"
	"time"

	"rag-chatbot-backend/models"
)

// MemoryStore keeps transcripts in a process-wide map. Sessions expire
// after ttl of inactivity and each transcript is trimmed to the most
// recent maxEntries entries, so the map cannot grow without bound.
type MemoryStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	sessions   map[string]*memorySession
}

type memorySession struct {
	entries    []models.TranscriptEntry
	lastAccess time.Time
}

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &MemoryStore{
		ttl:        ttl,
		maxEntries: maxEntries,
		sessions:   make(map[string]*memorySession),
	}
}

func (s *MemoryStore) History(ctx context.Context, userID string) ([]models.TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepExpired()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	sess.lastAccess = time.Now()

	out := make([]models.TranscriptEntry, len(sess.entries))
	copy(out, sess.entries)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, userID string, entries ...models.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepExpired()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &memorySession{}
		s.sessions[userID] = sess
	}
	sess.entries = append(sess.entries, entries...)
	sess.lastAccess = time.Now()

	if len(sess.entries) > s.maxEntries {
		trimmed := make([]models.TranscriptEntry, s.maxEntries)
		copy(trimmed, sess.entries[len(sess.entries)-s.maxEntries:])
		sess.entries = trimmed
	}
	return nil
}

// sweepExpired drops sessions idle longer than ttl. Caller holds mu.
func (s *MemoryStore) sweepExpired() {
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

package services

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"rag-chatbot-backend/models"
)

// Chunker splits a text blob into bounded, overlapping chunks. Splitting is
// recursive over progressively smaller separators (paragraph, line, word,
// character); the character fallback means even an unbroken run longer than
// the target gets split. Deterministic for identical input and
// configuration.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewChunker(chunkSize, chunkOverlap int) Chunker {
	return Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// Chunk splits text and tags every chunk with the source URL and its
// position in the sequence.
func (c Chunker) Chunk(text, sourceURL string) ([]models.DocumentChunk, error) {
	parts, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}

	chunks := make([]models.DocumentChunk, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		chunks = append(chunks, models.DocumentChunk{
			Text:          part,
			SourceURL:     sourceURL,
			SequenceIndex: len(chunks),
		})
	}
	return chunks, nil
}

package models

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerHuman     Speaker = "Human"
	SpeakerAssistant Speaker = "AI"
)

// TranscriptEntry is one turn in a user's conversation. Entries are
// append-only and ordered.
type TranscriptEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// LoadDocumentsRequest is the body of POST /api/load-documents.
type LoadDocumentsRequest struct {
	URL string `json:"url" binding:"required"`
}

// LoadDocumentsResponse is the success body of POST /api/load-documents.
type LoadDocumentsResponse struct {
	Success bool `json:"success"`
}

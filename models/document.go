package models

import "time"

// RawDocument is a single fetched page before any cleanup.
type RawDocument struct {
	URL        string
	Title      string
	HTML       string
	StatusCode int
	FetchedAt  time.Time
}

// NormalizedDocument is a page reduced to plain text, ready for chunking.
type NormalizedDocument struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// DocumentChunk is the unit of embedding and retrieval. Immutable once
// produced by the chunker.
type DocumentChunk struct {
	Text          string `json:"text"`
	SourceURL     string `json:"source_url"`
	SequenceIndex int    `json:"sequence_index"`
}

// IndexedRecord pairs a chunk with the embedding vector that was computed
// for it. The vector must come from the same embedding configuration that
// is used at query time; mixing embedding schemes corrupts similarity
// ranking.
type IndexedRecord struct {
	Chunk  DocumentChunk
	Vector []float32
}

// ScoredChunk is a single retrieval hit with its similarity score.
type ScoredChunk struct {
	Chunk DocumentChunk
	Score float32
}

// IngestResult reports how many chunks a completed ingestion stored.
type IngestResult struct {
	ChunkCount int `json:"chunk_count"`
}

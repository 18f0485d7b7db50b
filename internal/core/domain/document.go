package domain

import "time"

// Document is a stored unit of clinical text with its precomputed embedding.
// Documents are written at ingestion time and read-only afterwards.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate wraps a document during one retrieval call. The score is zero
// until the relevance scorer has run.
type Candidate struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// ScoreCandidate is the shape handed to the relevance scorer.
type ScoreCandidate struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ScoreResult is one scored candidate as returned by the relevance scorer.
type ScoreResult struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Answer is the synthesized response of the single-shot RAG endpoint.
type Answer struct {
	Text    string      `json:"text"`
	Sources []Candidate `json:"sources"`
}

package ports

import (
	"context"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

// Retriever is the public contract of the retrieval pipeline. It returns at
// most k candidates; an empty result is a normal outcome, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int, contextSummary string) ([]domain.Candidate, error)
}

// Assistant runs one conversation turn through the orchestration graph.
type Assistant interface {
	Run(ctx context.Context, userMessage string) (string, error)
	RunConversation(ctx context.Context, userMessage string) (*domain.TurnResult, error)
}

// PatientLookup resolves a patient by name or id into renderable report
// text. Ambiguity and not-found conditions are represented in the text; the
// error return is reserved for store failures.
type PatientLookup interface {
	Lookup(ctx context.Context, name string, id int64) (string, error)
}

// AnswerService is the single-shot RAG contract: retrieve then synthesize.
type AnswerService interface {
	Answer(ctx context.Context, question string, k int) (*domain.Answer, error)
}

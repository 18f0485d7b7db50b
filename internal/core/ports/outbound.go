package ports

import (
	"context"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

// Embedder builds vectors for queries and stored passages. Implementations
// must apply matching semantic prefixes on both sides so that distances in
// the document store stay comparable.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentStore is the read contract over the clinical knowledge base.
type DocumentStore interface {
	NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]domain.Document, error)
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	ListAll(ctx context.Context) ([]domain.Document, error)
}

// TextGenerator is the chat-completion contract. CompleteJSON constrains the
// model to emit a JSON object; callers still validate the payload.
type TextGenerator interface {
	Complete(ctx context.Context, messages []domain.Message) (string, error)
	CompleteJSON(ctx context.Context, messages []domain.Message) (string, error)
}

// RelevanceScorer cross-scores candidates against the literal question,
// independently of the vector distance used for retrieval.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, candidates []domain.ScoreCandidate) ([]domain.ScoreResult, error)
}

// PatientStore reads patients and their clinical records.
type PatientStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
	SearchByName(ctx context.Context, name string) ([]domain.Patient, error)
	ListRecords(ctx context.Context, patientID int64) ([]domain.ClinicalRecord, error)
}

// TurnPublisher hands completed turns to the external chat-history layer.
type TurnPublisher interface {
	PublishTurnCompleted(ctx context.Context, event domain.TurnEvent) error
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

// DocumentStore reads the clinical knowledge base from Postgres using
// pgvector cosine distance for nearest-neighbor search.
type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = "id, title, content, source, created_at"

func (s *DocumentStore) NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]domain.Document, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+`
		 FROM knowledge_documents
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query nearest neighbors: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (s *DocumentStore) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM knowledge_documents WHERE id = $1`, id)

	var doc domain.Document
	err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", err)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	return &doc, nil
}

func (s *DocumentStore) ListAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM knowledge_documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Insert stores a document together with its passage embedding. Used by the
// seed command; the serving path is read-only.
func (s *DocumentStore) Insert(ctx context.Context, doc domain.Document) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO knowledge_documents (title, content, source, embedding)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		doc.Title, doc.Content, doc.Source, pgvector.NewVector(doc.Embedding),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Source, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

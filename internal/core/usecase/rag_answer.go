package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
	"github.com/nexushealth/clinical-assistant/internal/core/ports"
)

// AnswerUseCase is the single-shot RAG flow: retrieve, stuff the context
// into one completion, answer strictly from it.
type AnswerUseCase struct {
	retriever ports.Retriever
	generator ports.TextGenerator
}

func NewAnswerUseCase(retriever ports.Retriever, generator ports.TextGenerator) *AnswerUseCase {
	return &AnswerUseCase{retriever: retriever, generator: generator}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, question string, k int) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "rag answer", fmt.Errorf("question is required"))
	}

	candidates, err := uc.retriever.Retrieve(ctx, question, k, "")
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &domain.Answer{
			Text:    "I found no relevant information in the clinical knowledge base.",
			Sources: []domain.Candidate{},
		}, nil
	}

	text, err := uc.generator.Complete(ctx, buildAnswerMessages(question, candidates))
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalFailed, "rag answer", err)
	}

	return &domain.Answer{Text: strings.TrimSpace(text), Sources: candidates}, nil
}

func buildAnswerMessages(question string, candidates []domain.Candidate) []domain.Message {
	var ctxText strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&ctxText, "[%s] (%s)\n%s\n\n", c.Document.Title, c.Document.Source, c.Document.Content)
	}

	system := fmt.Sprintf(`You are a direct, helpful clinical assistant.
Use ONLY the following context to answer the question.
If the answer is not in the context, say you do not know. Never invent
information.

--- CONTEXT ---
%s`, ctxText.String())

	return []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: question},
	}
}

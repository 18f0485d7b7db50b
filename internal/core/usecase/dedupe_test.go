package usecase

import (
	"testing"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

func TestMergeCandidatesKeepsFirstSeenOrder(t *testing.T) {
	perVariant := [][]domain.Document{
		{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}},
		{{ID: 2, Title: "b-dup"}, {ID: 3, Title: "c"}},
		{{ID: 1, Title: "a-dup"}},
	}

	merged := mergeCandidates(perVariant)
	if len(merged) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d", len(merged))
	}
	if merged[0].Document.ID != 1 || merged[1].Document.ID != 2 || merged[2].Document.ID != 3 {
		t.Fatalf("unexpected order: %+v", merged)
	}
	// The first occurrence wins on collision.
	if merged[1].Document.Title != "b" {
		t.Fatalf("expected first-seen document to win, got %q", merged[1].Document.Title)
	}
}

func TestMergeCandidatesEmptyInput(t *testing.T) {
	if got := mergeCandidates(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if got := mergeCandidates([][]domain.Document{nil, {}}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

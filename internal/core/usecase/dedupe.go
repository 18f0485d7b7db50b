package usecase

import "github.com/nexushealth/clinical-assistant/internal/core/domain"

// mergeCandidates flattens the per-variant retrieval results into one
// candidate list, unique by document id. First-seen order wins: earlier
// variants take priority on collision.
func mergeCandidates(perVariant [][]domain.Document) []domain.Candidate {
	total := 0
	for _, docs := range perVariant {
		total += len(docs)
	}

	out := make([]domain.Candidate, 0, total)
	seen := make(map[int64]struct{}, total)
	for _, docs := range perVariant {
		for _, doc := range docs {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			out = append(out, domain.Candidate{Document: doc})
		}
	}
	return out
}

package usecase

import (
	"sort"

	"github.com/nexushealth/clinical-assistant/internal/core/domain"
)

// applyScores annotates candidates with the scorer's results, keeping the
// deduplicated order. Candidates the scorer did not mention keep score zero.
func applyScores(candidates []domain.Candidate, results []domain.ScoreResult) []domain.Candidate {
	byID := make(map[int64]float64, len(results))
	for _, r := range results {
		byID[r.ID] = r.Score
	}

	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].Score = byID[out[i].Document.ID]
	}
	return out
}

// sortByScore orders candidates by descending score. The sort is stable so
// equal scores preserve their pre-sort (dedup) order.
func sortByScore(candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// filterByThreshold keeps the prefix of a score-sorted list whose scores
// reach minScore, truncated to k. Returning fewer than k candidates,
// including none, is expected when nothing is sufficiently relevant.
func filterByThreshold(candidates []domain.Candidate, minScore float64, k int) []domain.Candidate {
	out := make([]domain.Candidate, 0, min(len(candidates), k))
	for _, c := range candidates {
		if c.Score < minScore {
			continue
		}
		out = append(out, c)
		if len(out) == k {
			break
		}
	}
	return out
}

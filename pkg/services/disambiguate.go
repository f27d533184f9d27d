package services

import (
	"github.com/ai-financer/nlq-engine/pkg/models"
)

// maxSurfacedChoices caps how many candidates are surfaced when selection
// is ambiguous.
const maxSurfacedChoices = 3

// Decision is the outcome of the disambiguation policy. Exactly one of
// Selected or NeedsSelection is set.
type Decision struct {
	Selected       *models.RetrievalCandidate
	NeedsSelection bool
	Choices        []models.RetrievalCandidate
}

// Disambiguate decides which dataset a ranked candidate list resolves to.
// Priority order: an override id present among candidates wins
// unconditionally (explicit user choice, even if not top-ranked); a lone
// candidate or a top-two score gap at or above the threshold auto-selects
// the top candidate; otherwise the evidence is statistically
// indistinguishable and the caller must choose. The threshold is a tunable
// confidence margin, not a correctness guarantee. Deterministic for
// identical inputs.
func Disambiguate(candidates []models.RetrievalCandidate, overrideID string, threshold float64) Decision {
	if len(candidates) == 0 {
		return Decision{}
	}

	if overrideID != "" {
		for i := range candidates {
			if candidates[i].DatasetID == overrideID {
				return Decision{Selected: &candidates[i]}
			}
		}
	}

	if len(candidates) < 2 || candidates[0].Score-candidates[1].Score >= threshold {
		return Decision{Selected: &candidates[0]}
	}

	choices := candidates
	if len(choices) > maxSurfacedChoices {
		choices = choices[:maxSurfacedChoices]
	}
	return Decision{NeedsSelection: true, Choices: choices}
}

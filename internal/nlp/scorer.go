package nlp

import "strings"

// Bonus weights for the pattern scorer. The score is Jaccard word overlap
// plus bonuses, so the maximum contribution of a single pattern is roughly
// 1.5 (perfect overlap + substring + full sequence similarity).
const (
	substringBonus      = 0.3
	sequenceBonusWeight = 0.2
	sequenceBonusFloor  = 0.7
)

// ScorePatterns computes the similarity between text and a set of phrase
// patterns and returns the best single-pattern contribution. Per pattern:
//
//  1. Jaccard similarity of the lowercase word sets.
//  2. +0.3 when the pattern occurs as a literal substring of the text.
//  3. +ratio*0.2 when the character-level sequence ratio exceeds 0.7.
//
// Empty text or an empty pattern list scores 0. The function is pure.
func ScorePatterns(text string, patterns []string) float64 {
	if text == "" || len(patterns) == 0 {
		return 0
	}

	lowerText := strings.ToLower(text)
	textWords := tokenize(lowerText)

	best := 0.0
	for _, pattern := range patterns {
		lowerPattern := strings.ToLower(pattern)
		if lowerPattern == "" {
			continue
		}

		score := jaccard(textWords, tokenize(lowerPattern))

		if strings.Contains(lowerText, lowerPattern) {
			score += substringBonus
		}

		if ratio := SequenceRatio(lowerText, lowerPattern); ratio > sequenceBonusFloor {
			score += ratio * sequenceBonusWeight
		}

		if score > best {
			best = score
		}
	}
	return best
}

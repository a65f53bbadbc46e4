// Package nlp implements the intent classification pipeline: text
// normalization, pattern scoring, entity extraction, hybrid classification,
// and conversational follow-up resolution.
package nlp

// SequenceRatio computes the Ratcliff/Obershelp similarity of two strings:
// twice the number of matching characters divided by the total number of
// characters. Matching characters are found by locating the longest common
// substring and recursing on the pieces to its left and right.
//
// The result is in [0, 1]; identical non-empty strings score 1.0 and two
// empty strings score 1.0 by convention (nothing differs).
func SequenceRatio(a, b string) float64 {
	la, lb := len(a), len(b)
	if la+lb == 0 {
		return 1.0
	}
	matches := matchingChars([]byte(a), []byte(b))
	return 2.0 * float64(matches) / float64(la+lb)
}

// matchingChars counts the characters covered by recursively extracted
// longest common substrings.
func matchingChars(a, b []byte) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:ai], b[:bi])
	total += matchingChars(a[ai+size:], b[bi+size:])
	return total
}

// longestCommonSubstring returns the start offsets and length of the longest
// run of bytes common to a and b. Earlier positions win ties, matching the
// reference behavior of difflib-style matchers.
func longestCommonSubstring(a, b []byte) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// lengths[j] is the length of the common suffix ending at a[i], b[j].
	lengths := make([]int, len(b))
	for i := range a {
		prev := 0
		for j := range b {
			cur := lengths[j]
			if a[i] == b[j] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size + 1
					bi = j - size + 1
				}
			} else {
				lengths[j] = 0
			}
			prev = cur
		}
	}
	return ai, bi, size
}

// jaccard computes the Jaccard similarity of two word sets:
// |intersection| / |union|. An empty union scores 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

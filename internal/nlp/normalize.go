package nlp

import (
	"sort"
	"strings"
	"time"

	"github.com/scrypster/ashley/pkg/types"
)

// contractions is the fixed expansion table applied during normalization.
// Keys are matched as literal substrings, longest key first, so that
// overlapping forms (e.g. "can't" inside "can't've") expand deterministically.
var contractions = map[string]string{
	"i'm":       "i am",
	"i'll":      "i will",
	"i've":      "i have",
	"i'd":       "i would",
	"you're":    "you are",
	"you'll":    "you will",
	"you've":    "you have",
	"he's":      "he is",
	"she's":     "she is",
	"it's":      "it is",
	"that's":    "that is",
	"what's":    "what is",
	"who's":     "who is",
	"where's":   "where is",
	"how's":     "how is",
	"there's":   "there is",
	"let's":     "let us",
	"can't":     "cannot",
	"won't":     "will not",
	"don't":     "do not",
	"doesn't":   "does not",
	"didn't":    "did not",
	"isn't":     "is not",
	"aren't":    "are not",
	"wasn't":    "was not",
	"weren't":   "were not",
	"haven't":   "have not",
	"hasn't":    "has not",
	"hadn't":    "had not",
	"couldn't":  "could not",
	"shouldn't": "should not",
	"wouldn't":  "would not",
	"we're":     "we are",
	"we'll":     "we will",
	"they're":   "they are",
	"they'll":   "they will",
}

// contractionKeys holds the table keys sorted longest first (ties broken
// lexicographically) so replacement order is stable across runs.
var contractionKeys = func() []string {
	keys := make([]string, 0, len(contractions))
	for k := range contractions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Normalize lowercases the input, expands contractions, collapses runs of
// whitespace to single spaces, and strips trailing terminal punctuation.
// Empty or whitespace-only input normalizes to the empty string; the
// classifier treats that as "no actionable intent" rather than an error.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	text := strings.ToLower(raw)

	for _, key := range contractionKeys {
		text = strings.ReplaceAll(text, key, contractions[key])
	}

	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimRight(text, ".!?")
	text = strings.TrimRight(text, " ")

	return text
}

// NewUtterance builds an immutable Utterance from raw input, stamping it
// with the current time.
func NewUtterance(raw string) types.Utterance {
	return types.Utterance{
		Raw:        raw,
		Normalized: Normalize(raw),
		Timestamp:  time.Now(),
	}
}

// tokenize splits normalized text into a word set. Punctuation characters
// are treated as separators so "python, go" and "python go" tokenize alike.
func tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '\'')
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), "'")
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// tokens returns the words of normalized text in order, using the same
// separator rules as tokenize.
func tokens(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '\'')
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(strings.ToLower(w), "'")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

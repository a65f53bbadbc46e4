package nlp

import (
	"context"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scrypster/ashley/pkg/types"
)

// Thresholds of the two classification strategies and the hybrid rule.
const (
	lexicalFloor      = 0.3 // lexical best score must exceed this
	secondaryFloor    = 0.6 // zero-shot confidence must exceed this
	secondaryOverride = 0.7 // zero-shot alone wins above this
	agreementFloor    = 0.8 // minimum confidence when both strategies agree
	lexicalOnlyConf   = 0.6 // confidence assigned when only lexical matched
	contentWordBonus  = 0.1 // per content word appearing in an intent's patterns
)

// zeroShotCacheSize bounds the memoized zero-shot results. Repeated
// commands ("what time is it") are common enough that the cache pays for
// itself on the first duplicate.
const zeroShotCacheSize = 512

// ZeroShot scores text against candidate labels and returns the best label
// with a probability-like confidence. Implementations live in internal/llm.
type ZeroShot interface {
	Classify(ctx context.Context, text string, labels []string) (label string, confidence float64, err error)
}

type zeroShotResult struct {
	intent     types.Intent
	confidence float64
}

// Classifier combines a lexical pattern-scoring strategy with an optional
// zero-shot secondary strategy. It is stateless per call; conversational
// follow-up handling lives in the Resolver.
type Classifier struct {
	catalog   *types.IntentCatalog
	extractor *Extractor
	secondary ZeroShot
	cache     *lru.Cache[string, zeroShotResult]
	logger    *log.Logger
}

// NewClassifier builds a Classifier. secondary may be nil, in which case
// only the lexical strategy runs (degraded mode, not an error).
func NewClassifier(catalog *types.IntentCatalog, extractor *Extractor, secondary ZeroShot, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	var cache *lru.Cache[string, zeroShotResult]
	if secondary != nil {
		cache, _ = lru.New[string, zeroShotResult](zeroShotCacheSize)
	}
	return &Classifier{
		catalog:   catalog,
		extractor: extractor,
		secondary: secondary,
		cache:     cache,
		logger:    logger,
	}
}

// Classify normalizes text, runs both strategies, combines them, and
// attaches extracted entities regardless of which strategy won.
func (c *Classifier) Classify(ctx context.Context, text string) types.ClassificationResult {
	normalized := Normalize(text)
	entities := c.extractor.Extract(normalized)

	lexIntent, _ := c.lexical(normalized)
	secIntent, secConf := c.zeroShot(ctx, normalized)

	result := types.ClassificationResult{Intent: types.IntentUnknown, Confidence: 0.0, Entities: entities}

	switch {
	case lexIntent != types.IntentUnknown && lexIntent == secIntent:
		result.Intent = lexIntent
		result.Confidence = agreementFloor
		if secConf > result.Confidence {
			result.Confidence = secConf
		}
	case secIntent != types.IntentUnknown && secConf > secondaryOverride:
		result.Intent = secIntent
		result.Confidence = secConf
	case lexIntent != types.IntentUnknown:
		result.Intent = lexIntent
		result.Confidence = lexicalOnlyConf
	}

	return result
}

// lexical scores the text against every intent's pattern set plus a content
// word bonus and returns the best intent, or unknown when nothing clears the
// confidence floor.
func (c *Classifier) lexical(text string) (types.Intent, float64) {
	if text == "" {
		return types.IntentUnknown, 0.0
	}

	contentWords := contentWordStems(text)

	best := types.IntentUnknown
	bestScore := 0.0
	for _, intent := range c.catalog.Intents() {
		patterns := c.catalog.Patterns(intent)
		score := ScorePatterns(text, patterns)
		for _, stem := range contentWords {
			if stemInPatterns(stem, patterns) {
				score += contentWordBonus
			}
		}
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}

	if bestScore <= lexicalFloor {
		return types.IntentUnknown, 0.0
	}
	return best, bestScore
}

// zeroShot runs the secondary strategy through the result cache. Errors and
// sub-threshold confidences degrade to unknown.
func (c *Classifier) zeroShot(ctx context.Context, text string) (types.Intent, float64) {
	if c.secondary == nil || text == "" {
		return types.IntentUnknown, 0.0
	}

	if cached, ok := c.cache.Get(text); ok {
		return cached.intent, cached.confidence
	}

	label, confidence, err := c.secondary.Classify(ctx, text, c.catalog.Labels())
	if err != nil {
		c.logger.Printf("zero-shot classification failed: %v", err)
		return types.IntentUnknown, 0.0
	}

	intent := types.IntentUnknown
	conf := 0.0
	if confidence > secondaryFloor {
		intent = types.Intent(label)
		conf = confidence
	}
	c.cache.Add(text, zeroShotResult{intent: intent, confidence: conf})
	return intent, conf
}

// stopwords filtered out when counting content words. Rough approximation
// of a noun/verb/adjective filter without a POS tagger.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "am": {}, "are": {}, "was": {},
	"be": {}, "been": {}, "to": {}, "of": {}, "in": {}, "on": {}, "at": {},
	"it": {}, "its": {}, "i": {}, "you": {}, "me": {}, "my": {}, "your": {},
	"do": {}, "does": {}, "did": {}, "not": {}, "and": {}, "or": {}, "but": {},
	"for": {}, "with": {}, "this": {}, "that": {}, "what": {}, "how": {},
	"can": {}, "could": {}, "will": {}, "would": {}, "please": {}, "up": {},
}

// contentWordStems returns the crudely stemmed content words of text, in
// order, deduplicated.
func contentWordStems(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range tokens(text) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		stem := stemWord(w)
		if len(stem) < 3 {
			continue
		}
		if _, dup := seen[stem]; dup {
			continue
		}
		seen[stem] = struct{}{}
		out = append(out, stem)
	}
	return out
}

// stemWord strips common inflection suffixes. Not a real stemmer; just
// enough that "searching" matches patterns containing "search".
func stemWord(w string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 3 {
			return w[:len(w)-len(suffix)]
		}
	}
	return w
}

// stemInPatterns reports whether stem occurs as a substring of any pattern.
func stemInPatterns(stem string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(p, stem) {
			return true
		}
	}
	return false
}

package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePatternsBounds(t *testing.T) {
	assert.Equal(t, 0.0, ScorePatterns("what time is it", nil))
	assert.Equal(t, 0.0, ScorePatterns("what time is it", []string{}))
	assert.Equal(t, 0.0, ScorePatterns("", []string{"what time is it"}))

	// Exact match: Jaccard 1.0 + substring 0.3 + ratio bonus 0.2.
	got := ScorePatterns("what time is it", []string{"what time is it"})
	assert.GreaterOrEqual(t, got, 1.0)
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestScorePatternsSubstringBonus(t *testing.T) {
	withSub := ScorePatterns("please search google for cats", []string{"search google"})
	without := ScorePatterns("please google search for cats", []string{"search google"})
	assert.Greater(t, withSub, without, "literal substring occurrence must add a bonus")
}

func TestScorePatternsTakesMaximum(t *testing.T) {
	text := "what is the weather in london"
	weak := ScorePatterns(text, []string{"volume up"})
	strong := ScorePatterns(text, []string{"weather in"})
	both := ScorePatterns(text, []string{"volume up", "weather in"})
	assert.Equal(t, strong, both, "score is the best single pattern, not a sum")
	assert.Greater(t, both, weak)
}

func TestScorePatternsCaseInsensitive(t *testing.T) {
	a := ScorePatterns("Open Chrome", []string{"open"})
	b := ScorePatterns("open chrome", []string{"OPEN"})
	assert.InDelta(t, a, b, 1e-9)
}

func TestScorePatternsPure(t *testing.T) {
	patterns := []string{"set an alarm", "wake me up at"}
	first := ScorePatterns("set an alarm for 7 am", patterns)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ScorePatterns("set an alarm for 7 am", patterns))
	}
	assert.Equal(t, []string{"set an alarm", "wake me up at"}, patterns, "input slice must not be mutated")
}

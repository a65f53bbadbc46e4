package nlp

import (
	"regexp"
	"strings"

	"github.com/scrypster/ashley/pkg/types"
)

// EntityTagger labels tokens with coarse named-entity categories. The
// default tagger is gazetteer-based; a nil tagger means degraded mode where
// location and time lists are simply empty.
type EntityTagger interface {
	// Tag returns location-like and time-like spans found in text, in order
	// of appearance.
	Tag(text string) (locations []string, times []string)
}

// searchTriggers are keywords that introduce a search query. Everything after
// the trigger (optionally after a following "for") becomes one candidate.
var searchTriggers = []string{"search", "find", "look up", "google", "youtube", "wikipedia"}

// Alarm time shapes, scanned case-insensitively. Matches with multiple
// capture groups are joined with a single space.
var alarmPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}:\d{2}\s*(?:am|pm|a\.m\.|p\.m\.)?`),
	regexp.MustCompile(`\d{1,2}\s*(?:am|pm)\b`),
	regexp.MustCompile(`\d{1,2}\s*(?:a\.m\.|p\.m\.)`),
}

// Extractor pulls structured slots out of normalized text. It never fails;
// a category with no matches is simply absent from the result.
type Extractor struct {
	tagger EntityTagger
}

// NewExtractor builds an Extractor. tagger may be nil, in which case
// location and time entities are not produced.
func NewExtractor(tagger EntityTagger) *Extractor {
	return &Extractor{tagger: tagger}
}

// Extract returns every entity found in text. Values are appended in order
// of discovery and never deduplicated. Deterministic for identical input.
func (e *Extractor) Extract(text string) types.EntityMap {
	entities := make(types.EntityMap)
	if text == "" {
		return entities
	}
	lower := strings.ToLower(text)

	if e.tagger != nil {
		locations, times := e.tagger.Tag(lower)
		if len(locations) > 0 {
			entities[types.EntityLocation] = locations
		}
		if len(times) > 0 {
			entities[types.EntityTime] = times
		}
	}

	if queries := extractSearchQueries(lower); len(queries) > 0 {
		entities[types.EntitySearchQuery] = queries
	}
	if alarms := extractAlarmTimes(lower); len(alarms) > 0 {
		entities[types.EntityAlarmTime] = alarms
	}
	if apps := extractAppNames(lower); len(apps) > 0 {
		entities[types.EntityAppName] = apps
	}

	return entities
}

// extractSearchQueries captures, for each trigger keyword present in text,
// the remainder of the text after the keyword. A leading "for" after the
// keyword is skipped. Multiple triggers may each contribute a candidate.
func extractSearchQueries(text string) []string {
	var queries []string
	for _, trigger := range searchTriggers {
		idx := strings.Index(text, trigger)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(trigger):])
		rest = strings.TrimPrefix(rest, "for ")
		rest = strings.TrimSpace(rest)
		if rest != "" {
			queries = append(queries, rest)
		}
	}
	return queries
}

// extractAlarmTimes regex-scans for clock-time shapes, appending each match
// verbatim. Overlapping matches from different patterns are all kept.
func extractAlarmTimes(text string) []string {
	var out []string
	for _, re := range alarmPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			parts := make([]string, 0, len(m))
			for _, g := range m {
				g = strings.TrimSpace(g)
				if g != "" {
					parts = append(parts, g)
				}
			}
			if len(parts) > 0 {
				out = append(out, strings.Join(parts, " "))
			}
		}
	}
	return out
}

// appVerbs introduce an application name: "open spotify", "launch chrome".
var appVerbs = []string{"open", "launch", "start", "close", "quit", "kill"}

// extractAppNames captures the word following an app verb. Stops at the
// first non-word boundary so "open chrome and play music" yields "chrome".
func extractAppNames(text string) []string {
	words := tokens(text)
	var out []string
	for i, w := range words {
		for _, verb := range appVerbs {
			if w == verb && i+1 < len(words) {
				out = append(out, words[i+1])
				break
			}
		}
	}
	return out
}

// GazetteerTagger is the default EntityTagger: a fixed place-name gazetteer
// plus date/time keyword spotting. It covers the cities and expressions the
// assistant's own handlers care about rather than attempting open-domain NER.
type GazetteerTagger struct {
	places map[string]struct{}
}

// NewGazetteerTagger builds a tagger seeded with a built-in city list plus
// any extra place names supplied by the caller.
func NewGazetteerTagger(extraPlaces ...string) *GazetteerTagger {
	builtin := []string{
		"kolkata", "delhi", "mumbai", "chennai", "bangalore", "hyderabad",
		"london", "paris", "tokyo", "berlin", "madrid", "rome", "moscow",
		"beijing", "sydney", "toronto", "chicago", "seattle", "boston",
		"new york", "san francisco", "los angeles", "dubai", "singapore",
	}
	places := make(map[string]struct{}, len(builtin)+len(extraPlaces))
	for _, p := range builtin {
		places[p] = struct{}{}
	}
	for _, p := range extraPlaces {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			places[p] = struct{}{}
		}
	}
	return &GazetteerTagger{places: places}
}

// timeKeywords are date/time-like expressions spotted as time entities.
var timeKeywords = []string{
	"tomorrow", "today", "tonight", "yesterday", "morning", "afternoon",
	"evening", "midnight", "noon", "next week", "this week",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Tag scans text for gazetteer places and time keywords. Multi-word names
// are matched as substrings on word boundaries; order follows position in
// the text.
func (g *GazetteerTagger) Tag(text string) (locations []string, times []string) {
	type hit struct {
		pos  int
		text string
	}

	collect := func(needles []string) []hit {
		var hits []hit
		for _, n := range needles {
			if pos := wordIndex(text, n); pos >= 0 {
				hits = append(hits, hit{pos: pos, text: n})
			}
		}
		// insertion sort by position, ties by text so iteration order of the
		// gazetteer map never leaks into the result; the lists are tiny
		less := func(x, y hit) bool {
			return x.pos < y.pos || (x.pos == y.pos && x.text < y.text)
		}
		for i := 1; i < len(hits); i++ {
			for j := i; j > 0 && less(hits[j], hits[j-1]); j-- {
				hits[j], hits[j-1] = hits[j-1], hits[j]
			}
		}
		return hits
	}

	placeNames := make([]string, 0, len(g.places))
	for p := range g.places {
		placeNames = append(placeNames, p)
	}
	for _, h := range collect(placeNames) {
		locations = append(locations, h.text)
	}
	for _, h := range collect(timeKeywords) {
		times = append(times, h.text)
	}
	return locations, times
}

// wordIndex reports the byte offset of needle in text when it occurs on word
// boundaries, or -1.
func wordIndex(text, needle string) int {
	from := 0
	for {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(needle)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return idx
		}
		from = idx + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

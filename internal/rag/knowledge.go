// Package rag implements the knowledge retriever: a static markdown
// knowledge base ranked by word overlap against the query, used to ground
// the generative fallback in facts about the assistant.
package rag

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/scrypster/ashley/pkg/types"
)

// minTruncatedSpace is the smallest remaining budget worth filling with a
// truncated section. Below this the fragment carries no useful signal.
const minTruncatedSpace = 50

// DefaultMaxContextLength is the character budget for retrieved context.
const DefaultMaxContextLength = 500

// identitySections are the sections composing the assistant's self-description
// preamble for fallback prompts.
var identitySections = []string{"Identity Information", "Communication Style", "Core Functions"}

// defaultKnowledge is the embedded knowledge base used when no file is
// configured or the configured file is missing.
const defaultKnowledge = `# Assistant Knowledge Base

## Identity Information
- Ashley is a voice-driven personal assistant
- Ashley runs locally and keeps conversation history on the user's machine
- Ashley addresses the user as "sir" when appropriate

## Communication Style
- Responses are short, polite, and professional
- Ashley confirms actions it has taken and apologizes when something fails

## Core Functions
- Web search on Google, YouTube, and Wikipedia
- Current time, date, and weather reports
- Opening and closing desktop applications
- Setting, listing, and cancelling alarms
- Answering general questions from its knowledge base
`

// KnowledgeBase is the parsed, read-only section set.
type KnowledgeBase struct {
	sections []types.KnowledgeSection
	byName   map[string]int
}

// Load reads and parses the knowledge base at path. A missing file is
// degraded mode, not an error: the embedded default knowledge is used.
// An empty path selects the embedded default directly.
func Load(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Parse(defaultKnowledge), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(defaultKnowledge), nil
		}
		return nil, err
	}
	return Parse(string(data)), nil
}

// Parse builds a KnowledgeBase from markdown-style content: "## " lines
// open sections, "- " lines add bullets, other non-heading lines are kept
// as plain content. Text before the first section header is ignored.
func Parse(content string) *KnowledgeBase {
	kb := &KnowledgeBase{byName: make(map[string]int)}

	var current *types.KnowledgeSection
	flush := func() {
		if current != nil && len(current.Content) > 0 {
			if _, dup := kb.byName[current.Name]; !dup {
				kb.byName[current.Name] = len(kb.sections)
				kb.sections = append(kb.sections, *current)
			}
		}
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			current = &types.KnowledgeSection{Name: strings.TrimSpace(line[3:])}
		case current == nil:
			// preamble before the first section
		case strings.HasPrefix(line, "- "):
			current.Content = append(current.Content, strings.TrimSpace(line[2:]))
		case line != "" && !strings.HasPrefix(line, "#"):
			current.Content = append(current.Content, line)
		}
	}
	flush()

	return kb
}

// Sections returns the parsed section count.
func (kb *KnowledgeBase) Sections() int { return len(kb.sections) }

var wordRe = regexp.MustCompile(`\b\w+\b`)

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		set[w] = struct{}{}
	}
	return set
}

// relevance is the Jaccard word-overlap score between query and content.
func relevance(query, content map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	intersection := 0
	for w := range query {
		if _, ok := content[w]; ok {
			intersection++
		}
	}
	union := len(query) + len(content) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// RetrieveContext ranks sections by relevance to query and concatenates the
// best ones as "Name: content" parts joined with " | ", within maxLength
// characters. The first section that would overflow the budget is truncated
// with a trailing ellipsis when meaningful space remains, then assembly
// stops. An empty knowledge base or zero-relevance query yields "".
func (kb *KnowledgeBase) RetrieveContext(query string, maxLength int) string {
	if len(kb.sections) == 0 {
		return ""
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}

	queryWords := wordSet(query)

	type scored struct {
		index int
		text  string
		score float64
	}
	var ranked []scored
	for i, s := range kb.sections {
		body := strings.Join(s.Content, " ")
		score := relevance(queryWords, wordSet(body))
		if score > 0 {
			ranked = append(ranked, scored{index: i, text: s.Name + ": " + body, score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	var parts []string
	length := 0
	for _, item := range ranked {
		if length+len(item.text) <= maxLength {
			parts = append(parts, item.text)
			length += len(item.text)
			continue
		}
		if remaining := maxLength - length; remaining > minTruncatedSpace {
			parts = append(parts, item.text[:remaining]+"...")
		}
		break
	}

	return strings.Join(parts, " | ")
}

// IdentityContext returns the assistant's self-description: the identity
// sections joined as "Name: content" parts with " | ".
func (kb *KnowledgeBase) IdentityContext() string {
	var parts []string
	for _, name := range identitySections {
		if i, ok := kb.byName[name]; ok {
			parts = append(parts, name+": "+strings.Join(kb.sections[i].Content, " "))
		}
	}
	return strings.Join(parts, " | ")
}

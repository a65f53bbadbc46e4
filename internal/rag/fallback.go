package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Generator produces a free-text answer for a prompt. Satisfied by
// llm.TextGenerator.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answerer composes the generative fallback prompt: identity preamble,
// retrieved context, and the user's query. It never propagates generator
// failures; a failed call yields an empty answer.
type Answerer struct {
	kb     *KnowledgeBase
	gen    Generator
	logger *log.Logger
}

// NewAnswerer builds an Answerer. gen may be nil, in which case every query
// yields an empty answer (the dispatcher converts that to an apology).
func NewAnswerer(kb *KnowledgeBase, gen Generator, logger *log.Logger) *Answerer {
	if logger == nil {
		logger = log.Default()
	}
	return &Answerer{kb: kb, gen: gen, logger: logger}
}

// Answer retrieves context for query, builds the fallback prompt, and asks
// the generator. Returns "" when no generator is configured or the call
// fails; never returns an error to the caller.
func (a *Answerer) Answer(ctx context.Context, query string) string {
	if a.gen == nil {
		return ""
	}

	prompt := a.BuildPrompt(query)
	answer, err := a.gen.Complete(ctx, prompt)
	if err != nil {
		a.logger.Printf("generative fallback failed: %v", err)
		return ""
	}
	return strings.TrimSpace(answer)
}

// BuildPrompt assembles the prompt sent to the generator. The retrieved
// context block is omitted when nothing in the knowledge base is relevant.
func (a *Answerer) BuildPrompt(query string) string {
	identity := a.kb.IdentityContext()
	retrieved := a.kb.RetrieveContext(query, DefaultMaxContextLength)

	if retrieved != "" {
		return fmt.Sprintf(`Context about me: %s

Relevant information: %s

User query: %s

Please respond as Ashley, the AI assistant, using the context provided. Be helpful, professional, and address the user as "sir" when appropriate.`, identity, retrieved, query)
	}

	return fmt.Sprintf(`Context about me: %s

User query: %s

Please respond as Ashley, the AI assistant. Be helpful, professional, and address the user as "sir" when appropriate.`, identity, query)
}

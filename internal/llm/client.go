package llm

import (
	"context"
)

// LLMClient turns a prompt into a completion.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// RerankerClient orders documents by relevance to a query, returning their indices.
type RerankerClient interface {
	Rank(ctx context.Context, query string, documents []string) ([]int, error)
}

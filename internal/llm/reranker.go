package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var indexPattern = regexp.MustCompile(`\d+`)

type SimpleLLMReranker struct {
	LLM LLMClient
}

func NewSimpleLLMReranker(client LLMClient) *SimpleLLMReranker {
	return &SimpleLLMReranker{LLM: client}
}

// Rank asks the model for an ordering. Indices the model drops or repeats are repaired so
// the result is always a permutation of the input; on error the input order is returned.
func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		content := d
		if len(content) > 300 {
			content = content[:300] + "..."
		}
		fmt.Fprintf(&docList, "[%d] %s\n", i, content)
	}

	prompt := fmt.Sprintf(`You compare a new directory record with stored records that may be duplicates of it.
New record: %s

Stored records:
%s
Order the stored records from most to least likely to describe the same person, organisation or event.
Output ONLY the indices, separated by commas.
Example: 0, 2, 1
Do not output any other text.`, query, docList.String())

	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		return identity(len(docs)), nil
	}

	return permutation(parseIndices(resp), len(docs)), nil
}

func parseIndices(s string) []int {
	matches := indexPattern.FindAllString(s, -1)
	var indices []int
	for _, m := range matches {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}

func permutation(indices []int, n int) []int {
	seen := make([]bool, n)
	out := make([]int, 0, n)
	for _, i := range indices {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			out = append(out, i)
		}
	}
	return out
}

func identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

package search

import "strings"

const DefaultSuggestionLimit = 5

var suggestions = []string{
	"What is artificial intelligence?",
	"How does machine learning work?",
	"What are the ethics of AI?",
	"Who invented the internet?",
	"How to learn programming?",
	"What is quantum computing?",
	"How do neural networks function?",
	"What are the best AI tools in 2023?",
}

// Suggest returns canned questions containing partial, case-insensitively.
func Suggest(partial string, limit int) []string {
	out := make([]string, 0)
	if strings.TrimSpace(partial) == "" {
		return out
	}
	needle := strings.ToLower(partial)
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	for _, s := range suggestions {
		if strings.Contains(strings.ToLower(s), needle) {
			out = append(out, s)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

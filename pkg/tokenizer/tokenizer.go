package tokenizer

import (
	"strings"
)

// Estimate approximates a token count for English text, roughly 4/3
// tokens per word. Ollama omits prompt_eval_count when the prompt was
// served from its cache, so usage accounting falls back to this.
func Estimate(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return max(len(words)*4/3, 1)
}

// EstimateMessages sums the estimate over chat message contents.
func EstimateMessages(contents ...string) int {
	total := 0
	for _, c := range contents {
		total += Estimate(c)
	}
	return total
}

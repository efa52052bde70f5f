package memory

import "strings"

// EstimateTokens approximates the token count of text for budget accounting
// when the provider did not report usage. The heuristic is the larger of
// chars/4 and words*4/3, which tracks BPE tokenizers closely enough for a
// trigger threshold.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	byChars := len(text) / 4
	byWords := len(strings.Fields(text)) * 4 / 3
	if byWords > byChars {
		return byWords
	}
	if byChars == 0 {
		return 1
	}
	return byChars
}

package embedder

import (
	"strings"
	"unicode/utf8"
)

// Token estimation constants
const (
	// CharsPerToken is the estimated average characters per token for English
	// prose under a WordPiece vocabulary.
	CharsPerToken = 3.5

	// ConservativeCharsPerToken is used when cutting text to fit a budget.
	ConservativeCharsPerToken = 3.2
)

// EstimateTokens approximates token count from text length in runes.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(utf8.RuneCountInString(text)) / CharsPerToken)
}

// MaxCharsForTokens returns the maximum characters that fit in the given token budget.
func MaxCharsForTokens(tokens int) int {
	return int(float64(tokens) * ConservativeCharsPerToken)
}

// TruncateToTokens cuts text so that it fits the token budget. The cut
// happens at the last whitespace before the limit when there is one.
func TruncateToTokens(text string, maxTokens int) string {
	maxChars := MaxCharsForTokens(maxTokens)
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndexAny(cut, " \t\n"); i > maxChars/2 {
		cut = cut[:i]
	}
	return cut
}

// SplitByTokens splits text into consecutive windows that each fit the
// token budget. Every rune of the input lands in exactly one window.
func SplitByTokens(text string, maxTokens int) []string {
	maxChars := MaxCharsForTokens(maxTokens)
	if maxChars <= 0 || text == "" {
		return nil
	}
	runes := []rune(text)
	var windows []string
	for start := 0; start < len(runes); {
		end := start + maxChars
		if end >= len(runes) {
			windows = append(windows, string(runes[start:]))
			break
		}
		// prefer to break on whitespace in the back half of the window
		for i := end; i > start+maxChars/2; i-- {
			if runes[i-1] == ' ' || runes[i-1] == '\n' || runes[i-1] == '\t' {
				end = i
				break
			}
		}
		windows = append(windows, string(runes[start:end]))
		start = end
	}
	return windows
}

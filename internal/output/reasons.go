package output

import (
	"strings"

	"github.com/parley-dev/parley/internal/store"
)

// MaxReasons is the maximum number of reasons to return
const MaxReasons = 4

// Distance bands for describing how close a match is. Both backends return
// distances in [0, 2] for unit-length embeddings.
const (
	nearIdenticalDistance = 0.05
	closeDistance         = 0.6
)

// GenerateMatchReasons creates human-readable explanations of why a stored
// document matched a search
func GenerateMatchReasons(match *store.Match, query string) []string {
	reasons := []string{}

	if query == "" {
		return reasons
	}

	switch {
	case match.Distance <= nearIdenticalDistance:
		reasons = append(reasons, "near-identical wording")
	case match.Distance <= closeDistance:
		reasons = append(reasons, "close in meaning")
	default:
		reasons = append(reasons, "loosely related")
	}

	// Check for exact phrase match
	queryLower := strings.ToLower(strings.TrimSpace(query))
	docLower := strings.ToLower(match.Document)
	if queryLower != "" && strings.Contains(docLower, queryLower) {
		reasons = append(reasons, "exact phrase match")
	} else {
		for _, term := range extractTerms(query) {
			if strings.Contains(docLower, term) {
				reasons = append(reasons, "contains '"+term+"'")
				break // Only add one term reason
			}
		}
	}

	switch match.Kind {
	case store.KindQuery:
		reasons = append(reasons, "earlier question")
	case store.KindResponse:
		reasons = append(reasons, "earlier answer")
	}

	// Deduplicate and limit
	reasons = deduplicateReasons(reasons)
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}

	return reasons
}

// extractTerms splits a query into lowercase terms
func extractTerms(query string) []string {
	words := strings.Fields(query)
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()[]{}|")
		if len(w) > 2 {
			terms = append(terms, strings.ToLower(w))
		}
	}
	return terms
}

// deduplicateReasons removes duplicate reasons
func deduplicateReasons(reasons []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r == "" {
			continue
		}
		lower := strings.ToLower(r)
		if !seen[lower] {
			seen[lower] = true
			result = append(result, r)
		}
	}
	return result
}

package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/parley-dev/parley/internal/chat"
)

// FormatMode specifies the output format
type FormatMode int

const (
	// FormatNormal is the standard compact output
	FormatNormal FormatMode = iota
	// FormatVerbose adds identifiers, distances and match reasons
	FormatVerbose
	// FormatJSON outputs raw JSON
	FormatJSON
)

// previewWidth is how much of a document verbose listings show per line
const previewWidth = 120

// Formatter renders chat results for the terminal
type Formatter struct {
	Mode FormatMode
}

// NewFormatter creates a formatter with the specified mode
func NewFormatter(mode FormatMode) *Formatter {
	return &Formatter{Mode: mode}
}

// FormatAnswer formats the outcome of a question
func (f *Formatter) FormatAnswer(result *chat.AskResult) (string, error) {
	if f.Mode == FormatJSON {
		return toJSON(result)
	}

	var sb strings.Builder
	sb.WriteString("Ollama Response: ")
	sb.WriteString(result.Answer.Text)
	sb.WriteString("\n")

	if result.StoreFailure != nil {
		sb.WriteString(fmt.Sprintf("Warning: %s\n", result.StoreFailure.Message))
	}

	if f.Mode == FormatVerbose {
		if result.Answer.Failure != nil {
			sb.WriteString(fmt.Sprintf("    Failure: %s\n", result.Answer.Failure.Kind))
		}
		if len(result.IDs) > 0 {
			sb.WriteString(fmt.Sprintf("    Stored as: %s\n", strings.Join(result.IDs, ", ")))
		}
		sb.WriteString(fmt.Sprintf("    Exchange: %s\n", result.ExchangeID))
		if result.Duration > 0 {
			sb.WriteString(fmt.Sprintf("    Took: %dms\n", result.Duration.Milliseconds()))
		}
	}

	return sb.String(), nil
}

// FormatSearch formats search results under a "Search results:" header
func (f *Formatter) FormatSearch(result *chat.SearchResult) (string, error) {
	if f.Mode == FormatJSON {
		return toJSON(result)
	}

	var sb strings.Builder
	sb.WriteString("Search results:\n")

	if f.Mode != FormatVerbose || len(result.Matches) == 0 {
		for _, line := range result.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}

	for i := range result.Matches {
		m := &result.Matches[i]
		sb.WriteString(fmt.Sprintf("[%d] %s (%s) [%.4f]\n", i+1, m.ID, m.Kind, m.Distance))
		sb.WriteString(fmt.Sprintf("    %s\n", truncateContent(m.Document, previewWidth)))
		if reasons := GenerateMatchReasons(m, result.Query); len(reasons) > 0 {
			sb.WriteString(fmt.Sprintf("    Reasons: %s\n", strings.Join(reasons, ", ")))
		}
	}
	return sb.String(), nil
}

// FormatHistory formats the stored documents as a numbered list
func (f *Formatter) FormatHistory(history *chat.History) (string, error) {
	if f.Mode == FormatJSON {
		return toJSON(history)
	}

	if history.Failure != nil {
		return history.Failure.Message + "\n", nil
	}
	if len(history.Items) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("History of queries and responses:\n")
	for _, item := range history.Items {
		if f.Mode == FormatVerbose {
			sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", item.Index, item.ID, item.Document))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", item.Index, item.Document))
	}
	return sb.String(), nil
}

// FormatEmbeddings formats the leading dimensions of every stored vector
func (f *Formatter) FormatEmbeddings(view *chat.EmbeddingsView) (string, error) {
	if f.Mode == FormatJSON {
		return toJSON(view)
	}

	if view.Failure != nil {
		return view.Failure.Message + "\n", nil
	}
	if view.Empty {
		return chat.NoEmbeddingsMessage + "\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Stored embeddings:\n")
	for _, item := range view.Items {
		if f.Mode == FormatVerbose {
			sb.WriteString(fmt.Sprintf("%d. %s (%d dims) %s...\n", item.Index, item.ID, item.Dimensions, FormatVector(item.Preview)))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. %s...\n", item.Index, FormatVector(item.Preview)))
	}
	return sb.String(), nil
}

// FormatVector renders a vector as [a, b, c] with compact float formatting
func FormatVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(float64(x), 'g', 6, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func toJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return string(data) + "\n", nil
}

// truncateContent truncates content to maxLen, adding ellipsis if needed
func truncateContent(content string, maxLen int) string {
	// Replace newlines with spaces for single-line preview
	content = strings.ReplaceAll(content, "\n", " ")
	content = strings.ReplaceAll(content, "\t", " ")

	// Collapse multiple spaces
	for strings.Contains(content, "  ") {
		content = strings.ReplaceAll(content, "  ", " ")
	}

	content = strings.TrimSpace(content)

	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}

	return string(runes[:maxLen-3]) + "..."
}

package embedder

import (
	"fmt"
	"strings"
)

// ModelInfo contains metadata about an embedding model.
type ModelInfo struct {
	Name        string // Ollama model name
	Dimensions  int    // Embedding vector dimensions
	ContextSize int    // Maximum input length in tokens
	Size        string // Human-readable size (e.g., "~46MB")
}

// EmbeddingModels maps Ollama model names to model info.
var EmbeddingModels = map[string]ModelInfo{
	// sentence-transformers/all-MiniLM-L6-v2, mean pooled
	"all-minilm": {
		Name:        "all-minilm",
		Dimensions:  384,
		ContextSize: 512,
		Size:        "~46MB",
	},
	"nomic-embed-text": {
		Name:        "nomic-embed-text",
		Dimensions:  768,
		ContextSize: 8192,
		Size:        "~274MB",
	},
	"mxbai-embed-large": {
		Name:        "mxbai-embed-large",
		Dimensions:  1024,
		ContextSize: 512,
		Size:        "~670MB",
	},
}

// DefaultModel is the default embedding model.
const DefaultModel = "all-minilm"

// GetModelInfo returns model info by Ollama model name. A ":latest" tag is
// ignored; other tags must match exactly.
func GetModelInfo(name string) (*ModelInfo, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	name = strings.TrimSuffix(name, ":latest")
	info, ok := EmbeddingModels[name]
	if !ok {
		return nil, fmt.Errorf("unknown model '%s'; set embedding.dimensions for models outside the registry", name)
	}
	return &info, nil
}

// GetDimensionsForModel returns the vector size for a registered model, or 0
// if the model is unknown.
func GetDimensionsForModel(name string) int {
	info, err := GetModelInfo(name)
	if err != nil {
		return 0
	}
	return info.Dimensions
}

// GetContextSizeForModel returns the token limit for a registered model,
// falling back to 512 for unknown models.
func GetContextSizeForModel(name string) int {
	info, err := GetModelInfo(name)
	if err != nil {
		return 512
	}
	return info.ContextSize
}

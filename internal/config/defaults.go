package config

import "time"

const (
	// MemoryDSN keeps the vector store in process memory.
	MemoryDSN = ":memory:"

	// DefaultCollection is the collection chat exchanges are written to.
	DefaultCollection = "chatbot_data"

	// DefaultPort is the port parleyd listens on when none is configured.
	DefaultPort = 7433
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Version: 1,
		LLM: LLMConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.2:latest",
			Timeout: 5 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			OllamaURL: "http://localhost:11434",
			Model:     "all-minilm",
			MaxTokens: 512,
			Overflow:  "truncate",
			CacheSize: 1000,
		},
		Store: StoreConfig{
			DSN:        MemoryDSN,
			Collection: DefaultCollection,
		},
		Search: SearchConfig{
			Limit: 5,
		},
		Daemon: DaemonConfig{
			Host:           "127.0.0.1",
			Port:           DefaultPort,
			LogLevel:       "info",
			RequestTimeout: 10 * time.Minute,
		},
	}
}

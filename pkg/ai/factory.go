package ai

import (
	"context"
	"fmt"

	"mailsift-backend/pkg/gemini"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "ollama" or "auto"

	// Gemini config
	GeminiAPIKey string
	GeminiModel  string

	// Ollama config, read at call time so settings changes apply without restart
	GetOllamaBaseURL func() string // e.g., "http://localhost:11434"
	GetOllamaModel   func() string // e.g., "llama3", "mistral"
}

func (cfg Config) ollama() *OllamaService {
	getURL, getModel := cfg.GetOllamaBaseURL, cfg.GetOllamaModel
	if getURL == nil {
		getURL = func() string { return "http://localhost:11434" }
	}
	if getModel == nil {
		getModel = func() string { return "llama3" }
	}
	return NewOllamaServiceWithGetters(getURL, getModel)
}

// NewGenerator creates a TextGenerator based on the config.
// Switch AI provider by changing cfg.Provider.
func NewGenerator(ctx context.Context, cfg Config) (TextGenerator, error) {
	switch cfg.Provider {
	case ProviderGemini:
		svc, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return svc, nil

	case ProviderOllama:
		return cfg.ollama(), nil

	case ProviderAuto:
		// Gemini first, local Ollama when quota or network fails
		if cfg.GeminiAPIKey == "" {
			return cfg.ollama(), nil
		}
		svc, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return cfg.ollama(), nil
		}
		return NewFallbackGenerator(svc, cfg.ollama()), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}

package ai

import (
	"context"
)

// TextGenerator turns a prompt into model output.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

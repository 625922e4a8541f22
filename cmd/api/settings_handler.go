package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"mailsift-backend/pkg/ai"
)

// OllamaSettings holds the runtime-configurable local model settings
type OllamaSettings struct {
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// SettingsHandler serves the Ollama settings API. The engine reads the
// current values through BaseURL and Model on every call.
type SettingsHandler struct {
	mu       sync.RWMutex
	settings OllamaSettings
	pingWait time.Duration
}

func NewSettingsHandler(ollamaBaseURL, ollamaModel string) *SettingsHandler {
	return &SettingsHandler{
		settings: OllamaSettings{OllamaBaseURL: ollamaBaseURL, OllamaModel: ollamaModel},
		pingWait: 5 * time.Second,
	}
}

// BaseURL returns the current Ollama base URL
func (h *SettingsHandler) BaseURL() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings.OllamaBaseURL
}

// Model returns the current Ollama model
func (h *SettingsHandler) Model() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings.OllamaModel
}

// UpdateOllamaSettingsRequest represents the request body for updating Ollama settings
type UpdateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GET /api/settings/ollama
func (h *SettingsHandler) GetOllamaSettings(c *gin.Context) {
	h.mu.RLock()
	current := h.settings
	h.mu.RUnlock()

	c.JSON(http.StatusOK, current)
}

// PUT /api/settings/ollama
func (h *SettingsHandler) UpdateOllamaSettings(c *gin.Context) {
	var req UpdateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.settings.OllamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		h.settings.OllamaModel = req.OllamaModel
	}
	current := h.settings
	h.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ollama settings updated successfully",
		"ollama_base_url": current.OllamaBaseURL,
		"ollama_model":    current.OllamaModel,
	})
}

// POST /api/settings/ollama/test
// An empty body tests the current settings.
func (h *SettingsHandler) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = h.BaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.pingWait)
	defer cancel()

	if err := ai.NewOllamaService(req.OllamaBaseURL, h.Model()).Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":       false,
			"ollama_base_url": req.OllamaBaseURL,
			"error":           err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}

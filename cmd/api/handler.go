package api

import (
	"github.com/gin-gonic/gin"

	emailUsecasePkg "mailsift-backend/internal/email/usecase"
	"mailsift-backend/pkg/config"
)

type Handler struct {
	emailUsecase emailUsecasePkg.EmailUsecase
	settings     *SettingsHandler
	config       *config.Config
}

func NewHandler(emailUc emailUsecasePkg.EmailUsecase, settings *SettingsHandler, cfg *config.Config) *Handler {
	return &Handler{
		emailUsecase: emailUc,
		settings:     settings,
		config:       cfg,
	}
}

// CORSMiddleware echoes the caller's origin and answers preflight requests
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Router builds the gin engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	mode := h.config.GinMode
	if mode != gin.DebugMode && mode != gin.TestMode {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())

	SetupRoutes(r, h.emailUsecase, h.settings)
	return r
}

package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	emailDelivery "mailsift-backend/internal/email/delivery"
	emailUsecase "mailsift-backend/internal/email/usecase"
)

func SetupRoutes(r *gin.Engine, emailUsecase emailUsecase.EmailUsecase, settingsHandler *SettingsHandler) {
	emailHandler := emailDelivery.NewEmailHandler(emailUsecase)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", emailHandler.Health)

		// Ingestion
		api.POST("/sync", emailHandler.Sync)

		// Local records
		api.GET("/emails/:user_email", emailHandler.ListEmails)
		api.DELETE("/emails/:user_email/:message_id", emailHandler.DeleteEmail)

		// Reply assistance
		api.POST("/generate-reply", emailHandler.GenerateReply)
		api.POST("/send-email", emailHandler.SendEmail)

		// Settings routes
		settings := api.Group("/settings")
		{
			settings.GET("/ollama", settingsHandler.GetOllamaSettings)
			settings.PUT("/ollama", settingsHandler.UpdateOllamaSettings)
			settings.POST("/ollama/test", settingsHandler.TestOllamaConnection)
		}
	}
}

package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	emaildomain "mailsift-backend/internal/email/domain"
	emaildto "mailsift-backend/internal/email/dto"
	"mailsift-backend/internal/email/usecase"
	"mailsift-backend/pkg/logger"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
	log          zerolog.Logger
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
		log:          logger.For("API"),
	}
}

// POST /api/sync
func (h *EmailHandler) Sync(c *gin.Context) {
	var req emaildto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	synced, err := h.emailUsecase.Sync(c.Request.Context(), req.Token)
	if err != nil {
		h.log.Warn().Err(err).Msg("sync failed")
		c.JSON(http.StatusBadRequest, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.SyncResponse{Status: "success", Synced: synced})
}

// GET /api/emails/:user_email?category=
func (h *EmailHandler) ListEmails(c *gin.Context) {
	records := h.emailUsecase.ListRecords(c.Request.Context(), c.Param("user_email"), c.Query("category"))
	c.JSON(http.StatusOK, records)
}

// DELETE /api/emails/:user_email/:message_id
func (h *EmailHandler) DeleteEmail(c *gin.Context) {
	userEmail := c.Param("user_email")
	messageID := c.Param("message_id")

	if err := h.emailUsecase.DeleteRecord(c.Request.Context(), userEmail, messageID); err != nil {
		h.log.Error().Err(err).Str("user", userEmail).Str("message_id", messageID).Msg("delete failed")
		c.JSON(http.StatusInternalServerError, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.DeleteResponse{
		Status:  "success",
		Message: "Email deleted from local storage",
	})
}

// POST /api/generate-reply
func (h *EmailHandler) GenerateReply(c *gin.Context) {
	var req emaildto.GenerateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	reply, err := h.emailUsecase.GenerateReply(c.Request.Context(), req.EmailContent, req.Intent, req.SenderName)
	if err != nil {
		c.JSON(replyErrorStatus(err), emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.GenerateReplyResponse{Reply: reply})
}

func replyErrorStatus(err error) int {
	switch {
	case errors.Is(err, emaildomain.ErrMissingContent):
		return http.StatusBadRequest
	case errors.Is(err, emaildomain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// POST /api/send-email
func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req emaildto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	id, err := h.emailUsecase.SendEmail(c.Request.Context(), req.Token, req.To, req.Subject, req.Body, req.ThreadID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, emaildomain.ErrMissingContent) {
			status = http.StatusBadRequest
		}
		c.JSON(status, emaildto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, emaildto.SendEmailResponse{Status: "success", ID: id})
}

// GET /api/health
func (h *EmailHandler) Health(c *gin.Context) {
	report := h.emailUsecase.Health()
	c.JSON(http.StatusOK, emaildto.HealthResponse{
		Status:         "ok",
		StoreBackend:   report.StoreBackend,
		StoreAvailable: report.StoreAvailable,
		ModelStatus:    string(report.ModelStatus),
	})
}

package dto

type SyncRequest struct {
	Token string `json:"token" binding:"required"`
}

type SyncResponse struct {
	Status string `json:"status"`
	Synced int    `json:"synced"`
}

type DeleteResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type GenerateReplyRequest struct {
	EmailContent string `json:"email_content"`
	Intent       string `json:"intent"`
	SenderName   string `json:"sender_name"`
}

type GenerateReplyResponse struct {
	Reply string `json:"reply"`
}

type SendEmailRequest struct {
	Token    string `json:"token" binding:"required"`
	ThreadID string `json:"threadId"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

type SendEmailResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	StoreBackend   string `json:"store_backend"`
	StoreAvailable bool   `json:"store_available"`
	ModelStatus    string `json:"model_status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

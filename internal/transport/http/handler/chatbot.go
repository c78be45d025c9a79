package handler

import (
	"github.com/gin-gonic/gin"

	"rewear-api/internal/app"
	"rewear-api/internal/transport/http/response"
)

type ChatbotHandler struct {
	chatbotService *app.ChatbotService
}

type AskRequest struct {
	Message string `json:"message" binding:"required,min=1,max=500"`
}

type AskResponse struct {
	Response string `json:"response"`
}

func NewChatbotHandler(chatbotService *app.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbotService: chatbotService}
}

func (h *ChatbotHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reply, err := h.chatbotService.Ask(c.Request.Context(), req.Message)
	if err != nil {
		writeError(c, err, "chatbot request failed")
		return
	}
	response.OK(c, AskResponse{Response: reply})
}

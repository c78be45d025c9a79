package app

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"rewear-api/internal/ai"
)

const (
	minChatMessageLength = 1
	maxChatMessageLength = 500
)

// ChatbotService relays a single question to the completion API. Calls share no state.
type ChatbotService struct {
	client       CompletionClient
	systemPrompt string
	timeout      time.Duration
}

func NewChatbotService(client CompletionClient, systemPrompt string, timeout time.Duration) *ChatbotService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatbotService{
		client:       client,
		systemPrompt: systemPrompt,
		timeout:      timeout,
	}
}

func (s *ChatbotService) Ask(ctx context.Context, message string) (string, error) {
	n := utf8.RuneCountInString(message)
	if n < minChatMessageLength || n > maxChatMessageLength {
		return "", invalid("message", "must be between 1 and 500 characters")
	}
	if strings.TrimSpace(message) == "" {
		return "", invalid("message", "must not be blank")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.Complete(callCtx, []ai.ChatMessage{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: message},
	})
	if err != nil {
		log.Printf("chatbot completion failed: %v", err)
		return "", ErrChatUnavailable
	}
	return reply, nil
}

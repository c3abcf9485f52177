package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"chatapi/internal/models"
)

const systemInstruction = "You are a helpful and polite AI assistant. " +
	"Provide clear and accurate answers to the user's questions."

// fallbackResponse is returned when the model produces no choices.
const fallbackResponse = "Sorry, I was unable to generate a response."

// CompletionService calls a hosted OpenAI-compatible chat completion endpoint.
// Each call is stateless: a fixed system instruction plus the user's message,
// no conversation history.
type CompletionService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewCompletionService creates a new completion service
func NewCompletionService(baseURL, apiKey, model string) *CompletionService {
	return &CompletionService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces a response for the user's message. Transport and API
// failures are reported as a ProviderError, never as response text.
func (s *CompletionService) Generate(ctx context.Context, userMessage string) (string, error) {
	reqBody, err := json.Marshal(completionRequest{
		Model: s.model,
		Messages: []completionMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", &models.ProviderError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &models.ProviderError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &models.ProviderError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &models.ProviderError{Err: fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var result completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &models.ProviderError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(result.Choices) == 0 {
		log.Printf("⚠️  Completion returned no choices")
		return fallbackResponse, nil
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/sirupsen/logrus"
)

// Service is the completion gateway: ordered role/content messages in,
// generated text out. Any transport or payload problem is returned as
// an error for the caller to surface.
type Service interface {
	GetResponse(ctx context.Context, messages []models.PromptMessage) (string, error)
}

// OpenRouterClient implements Service against an OpenRouter-compatible
// chat completions endpoint.
type OpenRouterClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewOpenRouterClient creates a gateway client from config.
func NewOpenRouterClient(cfg *config.AIConfig, logger *logrus.Logger) *OpenRouterClient {
	return &OpenRouterClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout + 30*time.Second,
		},
		logger: logger,
	}
}

// GetResponse sends the messages to the completion endpoint with retry
// logic for transient failures.
func (s *OpenRouterClient) GetResponse(ctx context.Context, messages []models.PromptMessage) (string, error) {
	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		response, retryable, err := s.doRequest(ctx, messages, attempt)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !retryable {
			return "", err
		}

		s.logger.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
			"model":   s.config.Model,
		}).Warn("AI request failed, retrying...")

		if attempt < maxRetries {
			// Exponential backoff: 2s, 4s
			waitTime := time.Duration(2<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(waitTime):
			}
		}
	}

	return "", fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (s *OpenRouterClient) doRequest(ctx context.Context, messages []models.PromptMessage, attempt int) (string, bool, error) {
	reqBody := map[string]interface{}{
		"model":      s.config.Model,
		"messages":   messages,
		"max_tokens": s.config.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/chat/completions", strings.TrimSuffix(s.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.config.APIKey))

	s.logger.WithFields(logrus.Fields{
		"model":   s.config.Model,
		"url":     url,
		"attempt": attempt,
	}).Debug("Sending AI request")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"status":  resp.StatusCode,
			"body":    string(body),
			"attempt": attempt,
		}).Error("AI request failed")

		// client errors won't get better on retry
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", false, fmt.Errorf("AI request failed with client error %d: %s", resp.StatusCode, string(body))
		}
		return "", true, fmt.Errorf("AI request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return "", true, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error.Message != "" {
		return "", false, fmt.Errorf("AI error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", true, fmt.Errorf("no response from AI")
	}

	return result.Choices[0].Message.Content, false, nil
}

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"docqa-backend/internal/llm"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Summarize produces a prose summary of the given text.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, BuildSummarizePrompt(text), "summarize")
}

// Answer answers a question against a summary.
func (c *Client) Answer(ctx context.Context, summary, question string) (string, error) {
	return c.complete(ctx, BuildAnswerPrompt(summary, question), "answer")
}

func (c *Client) complete(ctx context.Context, messages []Message, op string) (string, error) {
	temp := float32(0)
	reqMessages := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		reqMessages = append(reqMessages, chatMessage{Role: m.Role, Content: m.Content})
	}
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    reqMessages,
		Temperature: &temp,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", llm.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", llm.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", llm.Transient(fmt.Errorf("openai request timeout: %w", err))
		}
		return "", llm.Transient(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llm.Transient(err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("openai %s: status %d: %s", op, resp.StatusCode, snippet(body))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", llm.Transient(err)
		}
		return "", llm.Permanent(err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", llm.Transient(fmt.Errorf("openai response parse: %w", err))
	}
	if parsed.Error != nil {
		return "", llm.Permanent(fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type))
	}
	if len(parsed.Choices) == 0 {
		return "", llm.Transient(fmt.Errorf("openai response missing choices"))
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", llm.Transient(fmt.Errorf("openai response empty content"))
	}
	logUsage(c.model, op, parsed.Usage)
	return content, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max]
	}
	return s
}

func logUsage(model, op string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	if usage == nil {
		log.Printf("llm response model=%s op=%s", model, op)
		return
	}
	log.Printf("llm response model=%s op=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		model, op, usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
}

var _ llm.Client = (*Client)(nil)

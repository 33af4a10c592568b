// ABOUTME: This file implements the HTTP client for the external post-generation LLM API
// ABOUTME: Follows an Ollama-style generate endpoint with a fixed prompt template
package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"linkpress/config"
	"linkpress/domain"
)

const promptTemplate = `You are a professional social media editor. Write a LinkedIn-style post about the following article. Keep it under 1300 characters, open with a hook, close with a question that invites discussion, and do not use hashtags excessively (three at most).

ARTICLE TITLE:
%s

ARTICLE CONTENT:
---
%s
---

Write only the post text, without any preamble.`

type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// GeneratedPost is the outcome of one successful generation call.
type GeneratedPost struct {
	Content        string
	ModelUsed      string
	PromptBaseHash string
	TokensInput    int
	TokensOutput   int
}

// Client calls the external post-generation API.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	cfg        config.GeneratorConfig
}

// NewClient builds an LLM API client from config.
func NewClient(cfg config.GeneratorConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate produces post content for one article.
func (c *Client) Generate(ctx context.Context, article *domain.Article) (*GeneratedPost, error) {
	prompt := fmt.Sprintf(promptTemplate, article.Title, article.ContentSnippet)

	payload := generatePayload{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.4,
			TopP:        0.9,
			NumPredict:  600,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate payload: %w", err)
	}

	apiURL := c.cfg.Host + c.cfg.APIPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.ErrorContext(ctx, "generate API returned error",
			"status", resp.StatusCode,
			"article_id", article.ID,
			"body", string(raw))
		return nil, fmt.Errorf("generate API returned HTTP %d", resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	if parsed.Response == "" {
		return nil, fmt.Errorf("generate API returned empty content")
	}

	hash := sha256.Sum256([]byte(promptTemplate))

	return &GeneratedPost{
		Content:        parsed.Response,
		ModelUsed:      parsed.Model,
		PromptBaseHash: hex.EncodeToString(hash[:8]),
		TokensInput:    parsed.PromptEvalCount,
		TokensOutput:   parsed.EvalCount,
	}, nil
}

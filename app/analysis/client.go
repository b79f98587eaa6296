package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"bili-notes/app/cfg"
)

const generationTimeout = 60 * time.Second

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []message `json:"messages"`
	} `json:"input"`
	Parameters struct {
		ResultFormat string `json:"result_format"`
	} `json:"parameters"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationResponse struct {
	Output struct {
		Text string `json:"text"`
	} `json:"output"`
}

// Client calls the external text-generation API. Every failure is reported
// as a tagged *Error so callers can tell transport failures from upstream
// rejections and empty completions.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

func NewClient(httpClient *http.Client) *Client {
	cfg := cfg.Get()

	return &Client{
		httpClient: httpClient,
		url:        cfg.LLMURL,
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
	}
}

// Run sends one system+user prompt pair and returns the generated text.
func (c *Client) Run(ctx context.Context, system, prompt string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	payload := generationRequest{Model: c.model}
	payload.Input.Messages = []message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	}
	payload.Parameters.ResultFormat = "text"

	body, err := json.Marshal(payload)
	if err != nil {
		return "", newError(KindParse, "failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return "", newError(KindTransport, "failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", newError(KindTransport, "request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindTransport, "failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newError(KindUpstream, "status %d: %s", resp.StatusCode, string(respBody))
	}

	var envelope generationResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return "", newError(KindParse, "failed to parse response: %v", err)
	}

	if envelope.Output.Text == "" {
		return "", newError(KindEmpty, "model returned no text")
	}

	slog.Debug("Generation completed", "model", c.model, "length", len(envelope.Output.Text))

	return envelope.Output.Text, nil
}

package llm

import (
	"context"
	"fmt"
	"net/http"
)

const (
	DeepSeekBaseURL      = "https://api.deepseek.com"
	DeepSeekDefaultModel = "deepseek-chat"
)

// DeepSeekProvider talks to the OpenAI-compatible chat completions endpoint.
type DeepSeekProvider struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

var _ Provider = (*DeepSeekProvider)(nil)

type deepSeekRequest struct {
	Messages       []Message       `json:"messages"`
	Model          string          `json:"model"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
	Temperature    float64         `json:"temperature"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := resolveKey(options, p.APIKey, "DEEPSEEK_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("DEEPSEEK_API_KEY_MISSING: Please set DEEPSEEK_API_KEY env var")
	}

	base := p.BaseURL
	if base == "" {
		base = DeepSeekBaseURL
	}

	req := deepSeekRequest{
		Messages: []Message{
			{Content: systemPrompt, Role: "system"},
			{Content: prompt, Role: "user"},
		},
		Model:       optString(options, "model", firstNonEmpty(p.Model, DeepSeekDefaultModel)),
		MaxTokens:   optInt(options, "max_tokens", 4096),
		Temperature: optFloat(options, "temperature", 0.1),
	}
	if optBool(options, "json") {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	var res deepSeekResponse
	if err := postJSON(ctx, p.HTTPClient, base+"/chat/completions", apiKey, "DEEPSEEK", req, &res); err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", fmt.Errorf("DEEPSEEK_NO_CHOICES: empty choices")
	}
	return res.Choices[0].Message.Content, nil
}

func (p *DeepSeekProvider) AdaptInstructions(raw string) string {
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package llm

import (
	"context"
	"fmt"
	"net/http"
)

const (
	QwenBaseURL      = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	QwenDefaultModel = "qwen-max"
)

// QwenProvider uses the native DashScope generation API.
type QwenProvider struct {
	BaseURL    string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

var _ Provider = (*QwenProvider)(nil)

type qwenResponse struct {
	Output struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		// Some endpoints return plain text instead of choices.
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := resolveKey(options, p.APIKey, "DASHSCOPE_API_KEY", "QWEN_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("QWEN_API_KEY_MISSING: Please set DASHSCOPE_API_KEY or QWEN_API_KEY")
	}

	params := map[string]interface{}{
		"result_format": "message",
		"temperature":   optFloat(options, "temperature", 0.1),
		"max_tokens":    optInt(options, "max_tokens", 4096),
	}
	if optBool(options, "json") {
		params["response_format"] = ResponseFormat{Type: "json_object"}
	}
	body := map[string]interface{}{
		"model": optString(options, "model", firstNonEmpty(p.Model, QwenDefaultModel)),
		"input": map[string]interface{}{
			"messages": []Message{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
		},
		"parameters": params,
	}

	var res qwenResponse
	if err := postJSON(ctx, p.HTTPClient, firstNonEmpty(p.BaseURL, QwenBaseURL), apiKey, "QWEN", body, &res); err != nil {
		return "", err
	}
	if res.Code != "" {
		return "", fmt.Errorf("QWEN_API_ERROR: %s - %s", res.Code, res.Message)
	}
	if len(res.Output.Choices) > 0 {
		return res.Output.Choices[0].Message.Content, nil
	}
	if res.Output.Text != "" {
		return res.Output.Text, nil
	}
	return "", fmt.Errorf("QWEN_EMPTY_RESPONSE: no choices or text")
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}

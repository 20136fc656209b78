package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GoogleAIProvider uses the older generative-ai-go client. Some deployments
// pin it because their keys are provisioned for that API surface.
type GoogleAIProvider struct {
	Model  string
	APIKey string
}

var _ Provider = (*GoogleAIProvider)(nil)

func (p *GoogleAIProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := resolveKey(options, p.APIKey, "GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GOOGLEAI_API_KEY_MISSING: GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("GOOGLEAI_CLIENT_ERROR: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(optString(options, "model", firstNonEmpty(p.Model, GeminiDefaultModel)))
	model.SetTemperature(float32(optFloat(options, "temperature", 0.1)))
	if optBool(options, "json") {
		model.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("GOOGLEAI_API_CALL_ERROR: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("GOOGLEAI_EMPTY_RESPONSE: no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), nil
}

func (p *GoogleAIProvider) AdaptInstructions(raw string) string {
	return raw
}

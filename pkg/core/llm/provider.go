package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Provider is the interface for all LLM providers.
//
// Recognised options: "model" (string), "api_key" (string), "json" (bool,
// ask for a JSON object reply), "temperature" (float64), "max_tokens" (int).
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

const defaultTimeout = 120 * time.Second

var defaultHTTPClient = &http.Client{Timeout: defaultTimeout}

func optString(options map[string]interface{}, key, fallback string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func optFloat(options map[string]interface{}, key string, fallback float64) float64 {
	switch v := options[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return fallback
}

func optInt(options map[string]interface{}, key string, fallback int) int {
	switch v := options[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func optBool(options map[string]interface{}, key string) bool {
	v, _ := options[key].(bool)
	return v
}

// resolveKey picks the API key from options, then the provider field, then
// the first non-empty environment variable.
func resolveKey(options map[string]interface{}, configured string, envVars ...string) string {
	if k := optString(options, "api_key", configured); k != "" {
		return k
	}
	for _, name := range envVars {
		if k := os.Getenv(name); k != "" {
			return k
		}
	}
	return ""
}

// postJSON sends body as JSON with bearer auth and decodes a 200 reply into
// out. Errors are tagged with the provider prefix.
func postJSON(ctx context.Context, client *http.Client, url, apiKey, tag string, body, out interface{}) error {
	if client == nil {
		client = defaultHTTPClient
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s_MARSHAL_ERROR: %v", tag, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s_REQ_CREATE_ERROR: %v", tag, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s_API_CALL_ERROR: %w", tag, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%s_READ_BODY_ERROR: %v", tag, err)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s_API_ERROR: status=%d body=%s", tag, res.StatusCode, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s_UNMARSHAL_ERROR: %v", tag, err)
	}
	return nil
}

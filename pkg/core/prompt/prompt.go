// Package prompt holds the prompt templates sent to LLM providers. Templates
// live in JSON files so wording can change without code changes.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Prompt IDs shipped in the embedded library.
const (
	IDFinancialReport = "extraction.financial_report"
	IDKeyMetrics      = "extraction.key_metrics"
	IDTrendAnalysis   = "analysis.trend"
	IDRiskAnalysis    = "analysis.risk"
)

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Category       string           `json:"category"`
	Description    string           `json:"description"`
	SystemPrompt   string           `json:"system_prompt"`
	UserPromptTmpl string           `json:"user_prompt_template"` // text/template
	Variables      []PromptVariable `json:"variables"`
	Version        string           `json:"version"`
}

type PromptVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// RenderUser executes the user prompt template. Missing optional variables
// take their declared default; a missing required one is an error.
func (pt *PromptTemplate) RenderUser(vars map[string]interface{}) (string, error) {
	data := make(map[string]interface{}, len(vars)+len(pt.Variables))
	for _, v := range pt.Variables {
		if _, ok := vars[v.Name]; ok {
			continue
		}
		if v.Required {
			return "", fmt.Errorf("PROMPT_VARIABLE_MISSING: %s requires %s", pt.ID, v.Name)
		}
		data[v.Name] = v.Default
	}
	for k, v := range vars {
		data[k] = v
	}

	tmpl, err := template.New(pt.ID).Option("missingkey=zero").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("PROMPT_TEMPLATE_PARSE_ERROR: %s: %w", pt.ID, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("PROMPT_TEMPLATE_EXEC_ERROR: %s: %w", pt.ID, err)
	}
	return buf.String(), nil
}

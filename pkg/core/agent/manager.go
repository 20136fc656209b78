// Package agent routes prompts for named tasks to the configured LLM provider.
package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/llm"
	"report_analysis/pkg/core/logging"
)

// Task names used by the secondary extractor.
const (
	TaskFinancialData   = "financial_data"
	TaskBasicIndicators = "basic_indicators"
	TaskTrendAnalysis   = "trend_analysis"
	TaskRiskAnalysis    = "risk_analysis"
)

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`
	Description string `yaml:"description"`
}

// Manager is safe for concurrent use; the active provider may be switched
// while prompts are in flight.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	log       zerolog.Logger
}

// NewManager registers the built-in providers. Keys are read from the
// environment at call time.
func NewManager(config Config, log zerolog.Logger) *Manager {
	return &Manager{
		config: config,
		providers: map[string]llm.Provider{
			"deepseek": &llm.DeepSeekProvider{},
			"qwen":     &llm.QwenProvider{},
			"gemini":   &llm.GeminiProvider{},
			"googleai": &llm.GoogleAIProvider{},
		},
		log: logging.For(log, "agent"),
	}
}

// Register adds or replaces a provider under name.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// GetProvider resolves the provider for a task: agent override first, then
// the active provider. It returns the provider name alongside.
func (m *Manager) GetProvider(task string) (string, llm.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if ac, ok := m.config.Agents[task]; ok && ac.Provider != "" {
		if p, ok := m.providers[ac.Provider]; ok {
			return ac.Provider, p, nil
		}
		m.log.Warn().Str("task", task).Str("provider", ac.Provider).Msg("agent provider override not registered, using active provider")
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return m.config.ActiveProvider, p, nil
	}
	return "", nil, fmt.Errorf("PROVIDER_NOT_FOUND: %q (registered: %v)", m.config.ActiveProvider, m.names())
}

// ExecutePrompt adapts the system prompt to the resolved provider and sends
// the request. A per-agent model is applied unless options already name one.
func (m *Manager) ExecutePrompt(ctx context.Context, task, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	name, provider, err := m.GetProvider(task)
	if err != nil {
		return "", err
	}

	opts := make(map[string]interface{}, len(options)+1)
	for k, v := range options {
		opts[k] = v
	}
	m.mu.RLock()
	ac, ok := m.config.Agents[task]
	m.mu.RUnlock()
	if ok && ac.Model != "" {
		if _, set := opts["model"]; !set {
			opts["model"] = ac.Model
		}
	}

	m.log.Debug().Str("task", task).Str("provider", name).Int("prompt_chars", len([]rune(prompt))).Msg("executing prompt")
	return provider.GenerateResponse(ctx, prompt, provider.AdaptInstructions(systemPrompt), opts)
}

func (m *Manager) SetGlobalProvider(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[name]; !ok {
		return fmt.Errorf("PROVIDER_NOT_FOUND: %s", name)
	}
	m.config.ActiveProvider = name
	m.log.Info().Str("provider", name).Msg("global provider set")
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Providers lists registered provider names in order.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.names()
}

func (m *Manager) names() []string {
	names := make([]string, 0, len(m.providers))
	for k := range m.providers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Package config exposes the LLM provider used for secondary extraction.
package config

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// ProviderSwitcher is implemented by agent.Manager.
type ProviderSwitcher interface {
	GetActiveProvider() string
	SetGlobalProvider(name string) error
	Providers() []string
}

type Response struct {
	ActiveProvider string   `json:"active_provider"`
	Available      []string `json:"available"`
	UseLLM         bool     `json:"use_llm"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	agents ProviderSwitcher
	useLLM bool
	log    zerolog.Logger
}

// NewHandler creates a new config handler. useLLM reports whether secondary
// extraction is enabled at all.
func NewHandler(agents ProviderSwitcher, useLLM bool, log zerolog.Logger) *Handler {
	return &Handler{agents: agents, useLLM: useLLM, log: log.With().Str("component", "api.config").Logger()}
}

// Register mounts the endpoints on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/config", h.HandleConfig).Methods(http.MethodGet)
	r.HandleFunc("/config/switch", h.HandleSwitch).Methods(http.MethodPost, http.MethodOptions)
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	// CORS for local dev
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	h.writeState(w, http.StatusOK)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.agents.SetGlobalProvider(req.Provider); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.log.Info().Str("provider", req.Provider).Msg("active provider switched")
	h.writeState(w, http.StatusOK)
}

func (h *Handler) writeState(w http.ResponseWriter, status int) {
	writeJSON(w, status, Response{
		ActiveProvider: h.agents.GetActiveProvider(),
		Available:      h.agents.Providers(),
		UseLLM:         h.useLLM,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

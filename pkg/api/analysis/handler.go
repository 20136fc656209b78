// Package analysis serves the report analysis operations over HTTP.
package analysis

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/pipeline"
	"report_analysis/pkg/core/summary"
	"report_analysis/pkg/models"
)

var errMissingFields = errors.New("missing required fields")

// BasicResponse is the analysis result flattened together with its summary.
type BasicResponse struct {
	models.AnalysisResult
	ID         string               `json:"id,omitempty"`
	Summary    string               `json:"summary"`
	ReportInfo *pipeline.ReportInfo `json:"report_info,omitempty"`
}

// Handler holds dependencies for analysis endpoints
type Handler struct {
	orch *pipeline.Orchestrator
	log  zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(orch *pipeline.Orchestrator, log zerolog.Logger) *Handler {
	return &Handler{orch: orch, log: log.With().Str("component", "api.analysis").Logger()}
}

// Register mounts the endpoints on r under /analysis.
func (h *Handler) Register(r *mux.Router) {
	s := r.PathPrefix("/analysis").Subrouter()
	s.HandleFunc("/basic", h.Basic).Methods(http.MethodPost)
	s.HandleFunc("/summary/{stock_code}/{year}/{report_type}", h.Summary).Methods(http.MethodGet)
	s.HandleFunc("/json/{stock_code}/{year}/{report_type}", h.JSON).Methods(http.MethodGet)
	s.HandleFunc("/trends", h.Trends).Methods(http.MethodPost)
	s.HandleFunc("/risks", h.Risks).Methods(http.MethodPost)
}

// Basic analyses one report and returns the result with its summary.
// POST /api/analysis/basic
func (h *Handler) Basic(w http.ResponseWriter, r *http.Request) {
	key, err := decodeKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.orch.Analyze(r.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("report", key.String()).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if code := statusCode(rep.Result); code != http.StatusOK {
		respondError(w, code, rep.Result.Message)
		return
	}

	respondJSON(w, http.StatusOK, BasicResponse{
		AnalysisResult: rep.Result,
		ID:             rep.ID,
		Summary:        rep.Summary,
		ReportInfo:     rep.Info,
	})
}

// Summary returns the Markdown summary as HTML (default) or as JSON text.
// GET /api/analysis/summary/{stock_code}/{year}/{report_type}?format=html|text
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "text" {
		respondError(w, http.StatusBadRequest, "format must be html or text")
		return
	}

	rep, err := h.orch.Summary(r.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("report", key.String()).Msg("summary failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if code := statusCode(rep.Result); code != http.StatusOK {
		respondError(w, code, rep.Result.Message)
		return
	}

	if format == "text" {
		respondJSON(w, http.StatusOK, map[string]string{"summary": rep.Summary})
		return
	}
	html, err := summary.HTML(rep.Summary)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// JSON returns the full analysis result.
// GET /api/analysis/json/{stock_code}/{year}/{report_type}
func (h *Handler) JSON(w http.ResponseWriter, r *http.Request) {
	key, err := pathKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := h.orch.Analyze(r.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("report", key.String()).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if code := statusCode(rep.Result); code != http.StatusOK {
		respondError(w, code, rep.Result.Message)
		return
	}
	respondJSON(w, http.StatusOK, rep.Result)
}

// Trends compares two periods of the same report type.
// POST /api/analysis/trends
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTrendRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.orch.Trends(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("stock_code", req.StockCode).Msg("trend analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if out.Status == models.StatusError {
		code = http.StatusUnprocessableEntity
	}
	respondJSON(w, code, out)
}

// Risks classifies the risk factors of one report.
// POST /api/analysis/risks
func (h *Handler) Risks(w http.ResponseWriter, r *http.Request) {
	key, err := decodeKey(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := h.orch.Risks(r.Context(), key)
	if err != nil {
		h.log.Error().Err(err).Str("report", key.String()).Msg("risk analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := http.StatusOK
	if out.Status == models.StatusError {
		code = http.StatusNotFound
	}
	respondJSON(w, code, out)
}

func statusCode(res models.AnalysisResult) int {
	switch {
	case res.Status != models.StatusError:
		return http.StatusOK
	case res.Kind == models.KindMissingInput:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func pathKey(r *http.Request) (ingest.Key, error) {
	vars := mux.Vars(r)
	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		return ingest.Key{}, errors.New("year must be an integer")
	}
	return validKey(ingest.Key{StockCode: vars["stock_code"], Year: year, ReportType: vars["report_type"]})
}

func isJSON(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "application/json"
}

// decodeKey accepts a JSON body or form fields.
func decodeKey(r *http.Request) (ingest.Key, error) {
	var key ingest.Key
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&key); err != nil {
			return key, errors.New("invalid request body")
		}
		return validKey(key)
	}
	year, err := formInt(r, "year")
	if err != nil {
		return key, err
	}
	return validKey(ingest.Key{
		StockCode:  r.FormValue("stock_code"),
		Year:       year,
		ReportType: r.FormValue("report_type"),
	})
}

func decodeTrendRequest(r *http.Request) (pipeline.TrendRequest, error) {
	var req pipeline.TrendRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, errors.New("invalid request body")
		}
	} else {
		cur, err := formInt(r, "current_year")
		if err != nil {
			return req, err
		}
		prev, err := formInt(r, "previous_year")
		if err != nil {
			return req, err
		}
		req = pipeline.TrendRequest{
			StockCode:    r.FormValue("stock_code"),
			CurrentYear:  cur,
			PreviousYear: prev,
			ReportType:   r.FormValue("report_type"),
		}
	}
	if req.StockCode == "" || req.ReportType == "" || req.CurrentYear == 0 || req.PreviousYear == 0 {
		return req, errMissingFields
	}
	for _, year := range []int{req.CurrentYear, req.PreviousYear} {
		if _, err := ingest.NewKey(req.StockCode, year, req.ReportType); err != nil {
			return req, err
		}
	}
	return req, nil
}

func formInt(r *http.Request, name string) (int, error) {
	v := r.FormValue(name)
	if v == "" {
		return 0, errMissingFields
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func validKey(k ingest.Key) (ingest.Key, error) {
	if k.StockCode == "" || k.Year == 0 || k.ReportType == "" {
		return k, errMissingFields
	}
	return ingest.NewKey(k.StockCode, k.Year, k.ReportType)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

package analysis

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/exam-analytics/backend/internal/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// AnalyzeExam handles GET /api/v1/exams/{id}/analysis.
//
// Query parameters:
//
//	generation_id    scope to one variant generation
//	per_variant      "true" to include the per-variant re-analysis
//	min_sample_size  override the reliability-warning threshold
//	confidence_level override the significance level (0.90, 0.95, 0.99)
//	exclude_incomplete "true" to drop attempts with no usable data
func (h *Handler) AnalyzeExam(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	query := r.URL.Query()
	generationID, ok := optionalInt64Param(query, "generation_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "generation_id must be an integer"})
		return
	}

	cfg := models.DefaultAnalysisConfig()
	cfg.MinSampleSize = intQueryParam(query, "min_sample_size", cfg.MinSampleSize)
	if s := query.Get("confidence_level"); s != "" {
		level, err := strconv.ParseFloat(s, 64)
		if err != nil || level <= 0 || level >= 1 {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "confidence_level must be between 0 and 1"})
			return
		}
		cfg.ConfidenceLevel = level
	}
	cfg.ExcludeIncompleteData = query.Get("exclude_incomplete") == "true"
	perVariant := query.Get("per_variant") == "true"

	result, err := h.service.AnalyzeExam(r.Context(), examID, generationID, cfg, perVariant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam not found"})
			return
		}
		log.Printf("WARN: analysis for exam %d failed: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Analysis failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AnalyzeIntegrity handles GET /api/v1/exams/{id}/integrity. Accepts the
// same generation_id scoping as the analysis endpoint.
func (h *Handler) AnalyzeIntegrity(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	generationID, ok := optionalInt64Param(r.URL.Query(), "generation_id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "generation_id must be an integer"})
		return
	}

	result, err := h.service.AnalyzeIntegrity(r.Context(), examID, generationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam not found"})
			return
		}
		log.Printf("WARN: integrity analysis for exam %d failed: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Analysis failed"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func optionalInt64Param(query url.Values, key string) (*int64, bool) {
	s := query.Get(key)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

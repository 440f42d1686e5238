package report

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/models"
	"github.com/gorilla/mux"
)

// Handler runs the full analysis and then narrates it. It sits on top of the
// analysis service rather than inside it, so report failures never affect
// the numeric endpoints.
type Handler struct {
	analysis *analysis.Service
	reporter *Reporter
}

func NewHandler(analysisService *analysis.Service, reporter *Reporter) *Handler {
	return &Handler{analysis: analysisService, reporter: reporter}
}

// GenerateReport handles GET /api/v1/exams/{id}/report. Accepts the same
// generation_id scoping as the analysis endpoints.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	examID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	var generationID *int64
	if s := r.URL.Query().Get("generation_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "generation_id must be an integer"})
			return
		}
		generationID = &id
	}

	result, err := h.analysis.AnalyzeExam(r.Context(), examID, generationID, models.DefaultAnalysisConfig(), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam not found"})
			return
		}
		log.Printf("WARN: report analysis for exam %d failed: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Analysis failed"})
		return
	}

	integrity, err := h.analysis.AnalyzeIntegrity(r.Context(), examID, generationID)
	if err != nil {
		// The report degrades to item findings only.
		log.Printf("WARN: integrity pass for exam %d report failed: %v", examID, err)
		integrity = nil
	}

	rep, err := h.reporter.Summarize(r.Context(), result, integrity)
	if err != nil {
		log.Printf("WARN: report generation for exam %d failed: %v", examID, err)
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Report generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

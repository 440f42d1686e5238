package exams

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
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

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func examIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	exam, err := h.service.CreateExam(r.Context(), userID, req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, exam)
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.ListExams(r.Context(), userID)
	if err != nil {
		log.Printf("WARN: list exams for user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list exams"})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetExam(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	exam, err := h.service.GetExam(r.Context(), examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam not found"})
			return
		}
		log.Printf("WARN: get exam %d: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load exam"})
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

func (h *Handler) PublishExam(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	if err := h.service.PublishExam(r.Context(), examID); err != nil {
		log.Printf("WARN: publish exam %d: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to publish exam"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(models.ExamPublished)})
}

func (h *Handler) GenerateVariants(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	var req models.GenerateVariantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.GenerateVariants(r.Context(), examID, req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam not found"})
			return
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListGenerations(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	gens, err := h.service.ListGenerations(r.Context(), examID)
	if err != nil {
		log.Printf("WARN: list generations for exam %d: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list generations"})
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

// SubmitResult accepts graded attempts without authentication: exam links
// are shared with students who have no account.
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	var req models.SubmitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "answers are required"})
		return
	}

	resp, err := h.service.SubmitResult(r.Context(), examID, req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Exam or variant not found"})
			return
		}
		log.Printf("WARN: submit result for exam %d: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to store result"})
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	examID, err := examIDFromPath(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid exam ID"})
		return
	}

	results, err := h.service.ListResults(r.Context(), examID)
	if err != nil {
		log.Printf("WARN: list results for exam %d: %v", examID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list results"})
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

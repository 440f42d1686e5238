package main

import (
	"log"
	"net/http"
	"os"

	"github.com/exam-analytics/backend/internal/analysis"
	"github.com/exam-analytics/backend/internal/auth"
	"github.com/exam-analytics/backend/internal/database"
	"github.com/exam-analytics/backend/internal/exams"
	"github.com/exam-analytics/backend/internal/middleware"
	"github.com/exam-analytics/backend/internal/report"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize handlers
	authHandler := auth.NewHandler(db)

	examService := exams.NewService(exams.NewStore(db))
	examHandler := exams.NewHandler(examService)

	analysisService := analysis.NewService(analysis.NewSQLStore(db))
	analysisHandler := analysis.NewHandler(analysisService)

	reportHandler := report.NewHandler(analysisService, report.NewReporter())

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Students submit attempts through shared links, without an account.
	api.HandleFunc("/exams/{id}/results", examHandler.SubmitResult).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")

	protected.HandleFunc("/exams", examHandler.CreateExam).Methods("POST")
	protected.HandleFunc("/exams", examHandler.ListExams).Methods("GET")
	protected.HandleFunc("/exams/{id}", examHandler.GetExam).Methods("GET")
	protected.HandleFunc("/exams/{id}/publish", examHandler.PublishExam).Methods("POST")
	protected.HandleFunc("/exams/{id}/variants", examHandler.GenerateVariants).Methods("POST")
	protected.HandleFunc("/exams/{id}/generations", examHandler.ListGenerations).Methods("GET")
	protected.HandleFunc("/exams/{id}/results", examHandler.ListResults).Methods("GET")

	protected.HandleFunc("/exams/{id}/analysis", analysisHandler.AnalyzeExam).Methods("GET")
	protected.HandleFunc("/exams/{id}/integrity", analysisHandler.AnalyzeIntegrity).Methods("GET")
	protected.HandleFunc("/exams/{id}/report", reportHandler.GenerateReport).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

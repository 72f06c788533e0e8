package api

import (
	"github.com/gorilla/mux"
	"github.com/mkarpis/jobtrail/internal/config"
	"github.com/mkarpis/jobtrail/internal/db"
	"github.com/mkarpis/jobtrail/internal/repository/sqlite"
	"github.com/mkarpis/jobtrail/internal/token"
	"github.com/mkarpis/jobtrail/internal/upload"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB, files *upload.Store, queue NotificationQueue) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(db, nil)

	issuer := token.NewIssuer(cfg.JWTSecret, cfg.TokenDuration)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, issuer)
	jobsHandler := NewJobsHandler(repo, repo, files, queue)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(AuthMiddleware(issuer))

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")

	protected.HandleFunc("/jobs", jobsHandler.List).Methods("GET")
	protected.HandleFunc("/jobs", jobsHandler.Create).Methods("POST")
	protected.HandleFunc("/jobs/stats", jobsHandler.Stats).Methods("GET")
	protected.HandleFunc("/jobs/status/{status}", jobsHandler.ListByStatus).Methods("GET")
	protected.HandleFunc("/jobs/resume/{id}", jobsHandler.DownloadResume).Methods("GET")
	protected.HandleFunc("/jobs/{id}", jobsHandler.Update).Methods("PUT")
	protected.HandleFunc("/jobs/{id}", jobsHandler.Delete).Methods("DELETE")

	return r
}

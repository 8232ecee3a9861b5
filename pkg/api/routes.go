package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func SetupRoutes(router *mux.Router, handlers *Handlers) {
	// API version prefix
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/solvers", handlers.ListSolvers).Methods("GET")

	api.HandleFunc("/enumerate", handlers.Enumerate).Methods("POST")
	api.HandleFunc("/runs/{runId}", handlers.GetRun).Methods("GET")

	api.HandleFunc("/reduce", handlers.Reduce).Methods("POST")
}

// NewRouter builds the router with the middleware stack. Preflight
// requests are answered by the CORS handler before routing.
func NewRouter(handlers *Handlers) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(LoggingMiddleware)
	router.Use(RecoveryMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler(router)
}

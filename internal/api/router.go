package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/dart-digest/internal/api/handlers"
	"github.com/wonny/dart-digest/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(reports *handlers.ReportHandler, runs *handlers.RunHandler, hub *handlers.Hub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", reports.Health).Methods("GET")

	// Live run results
	r.HandleFunc("/ws", hub.ServeWS).Methods("GET")

	// Rendered article
	r.HandleFunc("/reports/{date}", reports.RenderReport).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Report endpoints
	api.HandleFunc("/reports", reports.ListReports).Methods("GET")
	api.HandleFunc("/reports/{date}", reports.GetReport).Methods("GET")
	api.HandleFunc("/ledger/{receipt}", reports.GetLedgerEntry).Methods("GET")

	// Run trigger
	api.HandleFunc("/runs", runs.TriggerRun).Methods("POST")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Call next handler
			next.ServeHTTP(w, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

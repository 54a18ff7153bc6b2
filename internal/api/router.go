package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/idxscreen/internal/api/handlers"
	"github.com/wonny/idxscreen/pkg/logger"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(stock *handlers.StockHandler, analysis *handlers.AnalysisHandler, health *handlers.HealthHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", health.Check).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/criteria", stock.GetCriteria).Methods("GET")
	api.HandleFunc("/strategies", stock.GetStrategies).Methods("GET")

	stocks := api.PathPrefix("/stocks").Subrouter()

	// Multi-symbol endpoints
	stocks.HandleFunc("/popular", stock.GetPopular).Methods("GET")
	stocks.HandleFunc("/quotes", stock.GetQuotes).Methods("GET")
	stocks.HandleFunc("/screen", analysis.Screen).Methods("POST")
	stocks.HandleFunc("/batch", analysis.Batch).Methods("POST")
	stocks.HandleFunc("/compare", analysis.Compare).Methods("POST")
	stocks.HandleFunc("/regression-data", analysis.RegressionData).Methods("POST")

	// Single-symbol endpoints
	stocks.HandleFunc("/{symbol}/history", stock.GetHistory).Methods("GET")
	stocks.HandleFunc("/{symbol}/indicators", stock.GetIndicators).Methods("GET")
	stocks.HandleFunc("/{symbol}/orderbook", stock.GetOrderBook).Methods("GET")
	stocks.HandleFunc("/{symbol}/broker", stock.GetBroker).Methods("GET")
	stocks.HandleFunc("/{symbol}/features", stock.GetFeatures).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	// Apply middleware (outermost first)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
	})
}

// requestIDMiddleware propagates or assigns X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"request_id": r.Header.Get(RequestIDHeader),
				"duration":   time.Since(start),
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
						"error":      err,
						"path":       r.URL.Path,
						"request_id": r.Header.Get(RequestIDHeader),
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

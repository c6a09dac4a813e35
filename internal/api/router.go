package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/takumi-oka/market-log/internal/api/handlers"
	"github.com/takumi-oka/market-log/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: ルーティング設定はこの関数だけ
func NewRouter(stockHandler *handlers.StockHandler, marketHandler *handlers.MarketHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Per-security endpoints
	api.HandleFunc("/stocks", stockHandler.List).Methods("GET")
	api.HandleFunc("/stocks/search", stockHandler.Search).Methods("GET")
	api.HandleFunc("/stocks/{code}/prices", stockHandler.Prices).Methods("GET")
	api.HandleFunc("/stocks/{code}/financials", stockHandler.Financials).Methods("GET")
	api.HandleFunc("/stocks/{code}/investors", stockHandler.Investors).Methods("GET")
	api.HandleFunc("/watchlist", stockHandler.Watchlist).Methods("GET")

	// Market-wide endpoints
	api.HandleFunc("/market/breadth", marketHandler.Breadth).Methods("GET")
	api.HandleFunc("/market/history", marketHandler.History).Methods("GET")
	api.HandleFunc("/market/ranking", marketHandler.Ranking).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "market-log-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

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

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/dashboard"
	"github.com/nicktill/insights/pkg/export"
	"github.com/nicktill/insights/pkg/httpx"
	"github.com/nicktill/insights/pkg/hub"
	"github.com/nicktill/insights/pkg/logging"
	"github.com/nicktill/insights/pkg/server/monitor"
	"github.com/nicktill/insights/pkg/storage"
	"github.com/nicktill/insights/pkg/telemetry"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var startTime = time.Now()

// StorageUsage represents current storage usage stats.
type StorageUsage struct {
	Backend   string `json:"backend"`
	Records   uint64 `json:"records"`
	UsedBytes int64  `json:"used_bytes"`
	Dir       string `json:"dir,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string                `json:"status"`
	Version string                `json:"version"`
	Uptime  string                `json:"uptime"`
	Refresh monitor.RefreshStatus `json:"refresh"`
}

// handleHealth returns service health status.
func handleHealth(refreshMonitor *monitor.RefreshMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overallStatus := "healthy"
		statusCode := http.StatusOK

		if !refreshMonitor.IsHealthy() {
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:  overallStatus,
			Version: Version,
			Uptime:  time.Since(startTime).String(),
			Refresh: refreshMonitor.Status(),
		}

		httpx.RespondJSON(w, statusCode, response)
	}
}

// handleStorageUsage returns current storage usage. With the badger backend
// usage is measured on disk, otherwise the store's own estimate is used.
func handleStorageUsage(backend string, store storage.Store, disk *monitor.DiskMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.RequestTimeout)
		defer cancel()

		stats, err := store.Stats(ctx)
		if err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
			return
		}

		usage := StorageUsage{
			Backend:   backend,
			Records:   stats.TotalRecords,
			UsedBytes: int64(stats.SizeBytes),
		}
		if disk != nil {
			usedBytes, err := disk.GetUsage()
			if err != nil {
				httpx.RespondError(w, http.StatusInternalServerError, err)
				return
			}
			usage.UsedBytes = usedBytes
			usage.Dir = disk.Dir()
		}

		httpx.RespondJSON(w, http.StatusOK, usage)
	}
}

// Routes bundles what SetupRoutes mounts.
type Routes struct {
	Dashboard      *dashboard.Handler
	Export         *export.Handler
	Hub            *hub.Hub
	Store          storage.Store
	Backend        string
	RefreshMonitor *monitor.RefreshMonitor

	// DiskMonitor is nil for the memory backend
	DiskMonitor *monitor.DiskMonitor
}

// SetupRoutes configures all HTTP routes for the server.
func SetupRoutes(router *mux.Router, routes Routes, logger zerolog.Logger, port string) {
	router.Use(logging.Middleware(logger))
	router.Use(telemetry.Middleware)

	// CORS middleware for API access
	router.Use(corsMiddleware(port))

	// API routes
	api := router.PathPrefix("/v1").Subrouter()

	// Dashboard state
	api.HandleFunc("/dashboard", routes.Dashboard.HandleCurrent).Methods("GET")
	api.HandleFunc("/dashboard/bounds", routes.Dashboard.HandleBounds).Methods("GET")
	api.HandleFunc("/dashboard/range", routes.Dashboard.HandleSetRange).Methods("GET", "POST")

	// Metadata and stats
	api.HandleFunc("/stats", routes.Dashboard.HandleStats).Methods("GET")
	api.HandleFunc("/storage", handleStorageUsage(routes.Backend, routes.Store, routes.DiskMonitor)).Methods("GET")
	api.HandleFunc("/health", handleHealth(routes.RefreshMonitor)).Methods("GET")

	// WebSocket for real-time updates
	api.HandleFunc("/ws", routes.Hub.HandleWebSocket).Methods("GET")

	// Export/import
	api.HandleFunc("/export", routes.Export.HandleExport).Methods("GET")
	api.HandleFunc("/import", routes.Export.HandleImport).Methods("POST")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

// corsMiddleware creates CORS middleware that restricts to localhost origins only.
func corsMiddleware(port string) func(http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:" + port: true,
		"http://127.0.0.1:" + port: true,
		"http://localhost:3000":    true,
		"http://127.0.0.1:3000":    true,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Only set CORS headers for allowed origins
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

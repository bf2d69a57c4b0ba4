package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/playok/resmon/internal/model"
	"github.com/playok/resmon/internal/monitor"
	"github.com/playok/resmon/internal/settings"
)

// Monitor is the set of operations the API exposes.
type Monitor interface {
	GetSnapshot(ctx context.Context, force bool) *model.Snapshot
	Check(ctx context.Context) monitor.CheckResult
	Settings() model.Settings
	SaveThresholds(ctx context.Context, levels map[model.ResourceType]model.ThresholdPair) error
	SaveBaseThresholds(ctx context.Context, thresholds map[model.ResourceType]float64) error
	SaveEmailSettings(ctx context.Context, in settings.EmailInput) error
	SaveRefreshInterval(ctx context.Context, seconds int) error
	UpdatePollInterval(ctx context.Context, p model.PollInterval) error
	ListAlerts(ctx context.Context, filter string, page int) (*model.AlertPage, error)
	ClearAlerts(ctx context.Context) error
}

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	BasePath string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Health  Pinger
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(mon Monitor, hub *Hub, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	ra := &resourcesAPI{monitor: mon}
	aa := &alertsAPI{monitor: mon}
	sa := &settingsAPI{monitor: mon}

	// Resources
	mux.HandleFunc("GET /api/v1/snapshot", ra.snapshot)
	mux.HandleFunc("POST /api/v1/check", ra.check)

	// Alert history
	mux.HandleFunc("GET /api/v1/alerts", aa.list)
	mux.HandleFunc("DELETE /api/v1/alerts", aa.clear)

	// Settings
	mux.HandleFunc("GET /api/v1/settings", sa.get)
	mux.HandleFunc("PUT /api/v1/settings/thresholds", sa.thresholds)
	mux.HandleFunc("PUT /api/v1/settings/base-thresholds", sa.baseThresholds)
	mux.HandleFunc("PUT /api/v1/settings/email", sa.email)
	mux.HandleFunc("PUT /api/v1/settings/poll-interval", sa.pollInterval)
	mux.HandleFunc("PUT /api/v1/settings/refresh-interval", sa.refreshInterval)

	// WebSocket
	if hub != nil {
		mux.HandleFunc("GET /api/v1/ws", hub.HandleWS)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}

	var handler http.Handler = mux

	// If base_path is set, strip the prefix so internal routing works unchanged
	basePath := strings.TrimSuffix(opts.BasePath, "/")
	if basePath != "" {
		inner := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, basePath) {
				r.URL.Path = strings.TrimPrefix(r.URL.Path, basePath)
				if r.URL.Path == "" {
					r.URL.Path = "/"
				}
				r.URL.RawPath = strings.TrimPrefix(r.URL.RawPath, basePath)
			}
			inner.ServeHTTP(w, r)
		})
	}

	return withMiddleware(handler, logger.Named("http"))
}

func withMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		// Recovery
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", zap.Any("panic", err), zap.String("request_id", reqID))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		// CORS for local development
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)

		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", reqID))
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps classified errors to status codes: validation 400,
// everything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, model.ErrValidation) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

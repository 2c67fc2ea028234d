package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"clipbot/internal/history"
	"clipbot/internal/logging"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
)

// HistoryQuery filters the /history listing. A zero UserID lists every user.
type HistoryQuery struct {
	UserID int64
	Limit  int
}

// Backend supplies the data the router serves.
type Backend interface {
	Status(ctx context.Context) DaemonStatus
	History(ctx context.Context, query HistoryQuery) ([]history.Run, error)
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Backend   Backend
	Token     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRouter builds the status API: /health is open, everything else sits
// behind the bearer token when one is configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := logging.NewComponentLogger(cfg.Logger, "api")
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(logger))
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Token, logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/history", historyHandler(cfg))
		r.Get("/history/{userID}", historyHandler(cfg))
	})

	return r
}

func healthHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var uptime int64
		if !cfg.StartTime.IsZero() {
			uptime = int64(time.Since(cfg.StartTime).Seconds())
		}
		WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", UptimeS: uptime})
	}
}

func statusHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Backend.Status(r.Context()))
	}
}

func historyHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := HistoryQuery{Limit: defaultHistoryLimit}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			query.Limit = min(limit, maxHistoryLimit)
		}
		if raw := chi.URLParam(r, "userID"); raw != "" {
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || userID == 0 {
				WriteError(w, http.StatusBadRequest, "invalid user id", "BAD_REQUEST")
				return
			}
			query.UserID = userID
		}

		runs, err := cfg.Backend.History(r.Context(), query)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, HistoryResponse{Runs: FromRuns(runs)})
	}
}

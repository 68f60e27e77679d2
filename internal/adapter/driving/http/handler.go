// Package httphandler is the HTTP driving adapter that serves the status API.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/deploywatch/internal/application"
	"github.com/ericfisherdev/deploywatch/internal/domain/model"
	"github.com/ericfisherdev/deploywatch/internal/domain/port/driven"
	"github.com/ericfisherdev/deploywatch/internal/report"
)

// Handler serves the deployment-status REST API.
type Handler struct {
	checkSvc *application.CheckService
	store    driven.VerdictStore // nil disables the history endpoint
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. store may be
// nil when no history database is configured.
func NewHandler(checkSvc *application.CheckService, store driven.VerdictStore, logger *slog.Logger) *Handler {
	return &Handler{
		checkSvc: checkSvc,
		store:    store,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with rate limiting, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger, rl *RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", h.Status)
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging; the rate
	// limiter outermost so rejected requests never reach a handler.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	if rl != nil {
		wrapped = rl.Middleware(wrapped)
	}

	return wrapped
}

// Status runs a deployment-status query for ?repo=owner/name and one of
// ?commit=SHA or ?pr=N, and returns the machine report.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	target, ok := parseTarget(w, r)
	if !ok {
		return
	}

	verdict, err := h.checkSvc.Check(r.Context(), target)
	if err != nil {
		h.logger.Error("status query failed", "target", target.String(), "error", err)
		writeJSON(w, errorStatusCode(err), report.BuildError(target, err))
		return
	}

	writeJSON(w, http.StatusOK, report.Build(verdict))
}

// History returns recent recorded verdicts for ?repo=owner/name.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "verdict history is not enabled")
		return
	}

	repo := r.URL.Query().Get("repo")
	if !isValidRepoName(repo) {
		writeError(w, http.StatusBadRequest, "repo must be in owner/name format")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 200 {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 200")
			return
		}
		limit = parsed
	}

	verdicts, err := h.store.ListByRepo(r.Context(), repo, limit)
	if err != nil {
		h.logger.Error("history query failed", "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load verdict history")
		return
	}

	reports := make([]report.Report, 0, len(verdicts))
	for _, v := range verdicts {
		reports = append(reports, report.Build(v))
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Repo: repo, Verdicts: reports})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseTarget extracts and validates the query target from request params.
// On failure it writes a 400 response and returns ok=false.
func parseTarget(w http.ResponseWriter, r *http.Request) (model.Target, bool) {
	q := r.URL.Query()

	target := model.Target{
		Repo:      q.Get("repo"),
		CommitSHA: q.Get("commit"),
	}

	if v := q.Get("pr"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "pr must be a positive integer")
			return model.Target{}, false
		}
		target.PRNumber = n
	}

	if !isValidRepoName(target.Repo) {
		writeError(w, http.StatusBadRequest, "repo must be in owner/name format")
		return model.Target{}, false
	}

	if err := target.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Target{}, false
	}

	return target, true
}

// errorStatusCode maps the domain error taxonomy to HTTP status codes.
func errorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrAmbiguousTarget):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrProviderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// isValidRepoName validates that name is in owner/name format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	var slashes, partLen int
	for _, ch := range name {
		if ch == '/' {
			if partLen == 0 {
				return false
			}
			slashes++
			partLen = 0
			continue
		}
		if !isValidRepoChar(ch) {
			return false
		}
		partLen++
	}
	return slashes == 1 && partLen > 0
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}

package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchmesh/internal/domain"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/mode"
	"github.com/kailas-cloud/searchmesh/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/searchmesh/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchmesh/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		rateLimitHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrBackendUnavailable, http.StatusServiceUnavailable, codeBackendUnavailable),
	}
	return s
}

// Routes registers the server's endpoints on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/v1/search", s.SearchHandler)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchHandler handles POST /api/v1/search.
func (s *Server) SearchHandler(w http.ResponseWriter, r *http.Request) {
	var body searchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller identity")
		return
	}

	req, err := request.New(
		body.Query, body.Databases, body.Tables, body.Columns,
		mode.Mode(body.SearchMode), body.Limit, body.Offset, id.ID,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseToWire(&resp))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponseBody{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func writeErrorDetails(w http.ResponseWriter, status int, code errorCode, message string, details any) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrBackendUnavailable,
		domain.ErrEnhancerUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler surfaces the offending field alongside the message.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeErrorDetails(w, http.StatusBadRequest, codeValidation, ve.Reason,
			validationDetails{Field: ve.Field, Reason: ve.Reason})
		return true
	}
	writeError(w, http.StatusBadRequest, codeValidation, msg)
	return true
}

// rateLimitHandler handles ErrRateLimited with quota headers and a detail payload.
func rateLimitHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRateLimited) {
		return false
	}
	var rle *domain.RateLimitError
	if errors.As(err, &rle) {
		retryAfter := int(rle.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rle.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rle.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rle.ResetAt.Unix(), 10))
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeErrorDetails(w, http.StatusTooManyRequests, codeRateLimited, msg, rateLimitDetails{
			Limit:      rle.Limit,
			Remaining:  rle.Remaining,
			ResetTime:  rle.ResetAt.Unix(),
			RetryAfter: retryAfter,
			Tier:       rle.Tier,
		})
		return true
	}
	writeError(w, http.StatusTooManyRequests, codeRateLimited, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

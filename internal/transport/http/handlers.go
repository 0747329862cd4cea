// @title DocVault API
// @version 1.0.0
// @description Document management backend with hierarchical access control

// @contact.name API Support

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/docvault/docvault/internal/audit"
	"github.com/docvault/docvault/internal/authz"
	"github.com/docvault/docvault/internal/document"
	"github.com/docvault/docvault/internal/identity"
	"github.com/docvault/docvault/internal/logsink"
	"github.com/docvault/docvault/internal/observability/metrics"
	"github.com/docvault/docvault/internal/refresh"
	"github.com/docvault/docvault/internal/report"
	"github.com/docvault/docvault/internal/session"
	"github.com/docvault/docvault/internal/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	sessionService  *session.Service
	documentService *document.Service
	authzService    *authz.Service
	reportService   *report.Service
	codec           *token.Codec
	auditLogger     audit.Logger
	meter           *metrics.Meter
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	documentService *document.Service,
	authzService *authz.Service,
	reportService *report.Service,
	codec *token.Codec,
	auditLogger audit.Logger,
	meter *metrics.Meter,
) *Handler {
	return &Handler{
		identityService: identityService,
		sessionService:  sessionService,
		documentService: documentService,
		authzService:    authzService,
		reportService:   reportService,
		codec:           codec,
		auditLogger:     auditLogger,
		meter:           meter,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, sink *logsink.Sink) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware(sink))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/signin", h.SignIn)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/signout", h.SignOut)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/auth/me", h.GetCurrentUser)
			r.Post("/auth/signout-all", h.SignOutAll)

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", h.ListDocuments)
				r.Post("/", h.CreateDocument)
				r.Get("/hash/{hash}", h.GetDocumentByHash)
				r.Get("/hash/{hash}/content", h.DownloadDocumentByHash)
				r.Get("/{id}", h.GetDocument)
				r.Get("/{id}/content", h.DownloadDocument)
				r.Put("/{id}", h.UpdateDocument)
				r.Delete("/{id}", h.DeleteDocument)
				r.Delete("/{id}/purge", h.PurgeDocument)
			})

			// Categories
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
			})

			// Any signed-in user may file an error report; reading
			// them stays on the admin surface.
			r.Post("/reports/errors", h.CreateErrorReport)

			// Administration (top tier only)
			r.Route("/admin", func(r chi.Router) {
				r.Use(h.RequireCEO)
				r.Get("/users", h.ListUsers)
				r.Get("/users/{id}", h.GetUser)
				r.Post("/users", h.CreateUser)
				r.Put("/users/{id}/role", h.AssignRole)
				r.Delete("/users/{id}/role", h.RemoveRole)
				r.Put("/users/{id}/active", h.SetUserActive)
				r.Get("/reports/errors", h.ListErrorReports)
				r.Get("/reports/errors/daily", h.ErrorReportCounts)
			})
		})
	})

	return r
}

// HealthCheck returns service health status
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "docvault",
	})
}

// RequireCEO allows only the top tier through. The check runs on the
// cached fast path.
func (h *Handler) RequireCEO(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := GetUsername(r.Context())

		isCEO, err := h.authzService.IsCEO(r.Context(), username)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if !isCEO {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:     audit.TypePermissionDenied,
				ActorID:  username,
				Resource: r.URL.Path,
			})
			respondError(w, http.StatusForbidden, "permission denied")
			return
		}

		h.auditLogger.Log(r.Context(), audit.Event{
			Type:     audit.TypeExecutiveAccess,
			ActorID:  username,
			Resource: r.URL.Path,
		})

		next.ServeHTTP(w, r)
	})
}

// respondDomainError maps domain errors onto HTTP statuses: failed
// authentication is 401, an insufficient tier is 403, and missing
// resources are 404. An expired refresh token is 403 with a stable
// body code so clients can trigger a new sign-in.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrUserInactive),
		errors.Is(err, token.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, refresh.ErrTokenExpired):
		respondErrorCode(w, http.StatusForbidden, "token_expired", err.Error())
	case errors.Is(err, authz.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, identity.ErrUserNotFound),
		errors.Is(err, refresh.ErrTokenNotFound),
		errors.Is(err, document.ErrDocumentNotFound),
		errors.Is(err, document.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, identity.ErrUserAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, identity.ErrWeakPassword),
		errors.Is(err, document.ErrInvalidGates):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

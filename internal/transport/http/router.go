// Package httptransport is the thin HTTP layer over the numbering and
// registry services. Handlers decode, delegate, and encode; every business
// rule lives below.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"registrar/internal/audit"
	numbering "registrar/internal/numbering/models"
	numberingservice "registrar/internal/numbering/service"
	registrymodels "registrar/internal/registry/models"
	"registrar/internal/registry/protection"
	"registrar/internal/sites"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/middleware/auth"
	"registrar/pkg/platform/middleware/metadata"
	"registrar/pkg/platform/middleware/request"
	"registrar/pkg/platform/middleware/requesttime"
)

// NumberingService is the number issuance surface the handlers call.
type NumberingService interface {
	Generate(ctx context.Context, req numberingservice.GenerateRequest) (*registrymodels.Registry, error)
	Reserve(ctx context.Context, typeCode string, siteID *id.SiteID, modifiers []string) (*registrymodels.Registry, error)
	Link(ctx context.Context, registryID id.RegistryID, ref id.DocumentRef) (*registrymodels.Registry, error)
	VerifySequence(ctx context.Context, typeCode string, siteID *id.SiteID, year int) (numberingservice.VerificationReport, error)
}

// RegistryService is the lifecycle and audit surface the handlers call.
type RegistryService interface {
	Get(ctx context.Context, registryID id.RegistryID) (*registrymodels.Registry, error)
	GetByFullNumber(ctx context.Context, fullNumber string) (*registrymodels.Registry, error)
	UpdateStatus(ctx context.Context, registryID id.RegistryID, newStatus string) (*registrymodels.Registry, error)
	Lock(ctx context.Context, registryID id.RegistryID, reason string) (*registrymodels.Registry, error)
	Unlock(ctx context.Context, registryID id.RegistryID, reason string) (*registrymodels.Registry, error)
	Void(ctx context.Context, registryID id.RegistryID, reason string) (*registrymodels.Registry, error)
	CanEdit(ctx context.Context, registryID id.RegistryID, amount *float64) (protection.Decision, error)
	History(ctx context.Context, registryID id.RegistryID) ([]audit.Entry, error)
	Compliance(ctx context.Context, registryID id.RegistryID) (audit.Report, error)
	VerifyAuditChain(ctx context.Context, registryID id.RegistryID) (int, error)
	RecordAccess(ctx context.Context, registryID id.RegistryID) error
	RecordPrint(ctx context.Context, registryID id.RegistryID) error
}

// AdminService is the configuration surface the handlers call.
type AdminService interface {
	CreateType(ctx context.Context, docType *numbering.DocumentType) (*numbering.DocumentType, error)
	UpdateType(ctx context.Context, docType *numbering.DocumentType) (*numbering.DocumentType, error)
	GetType(ctx context.Context, code string) (*numbering.DocumentType, error)
	ListTypes(ctx context.Context) ([]*numbering.DocumentType, error)
	ProvisionCounter(ctx context.Context, typeCode string, siteID *id.SiteID) error
}

// SiteDirectory is the site admin surface the handlers call.
type SiteDirectory interface {
	Create(ctx context.Context, s *sites.Site) error
	List(ctx context.Context) ([]*sites.Site, error)
}

// Handler holds the services behind the HTTP surface.
type Handler struct {
	numbering NumberingService
	registry  RegistryService
	admin     AdminService
	sites     SiteDirectory
	logger    *slog.Logger
}

func NewHandler(numberingSvc NumberingService, registrySvc RegistryService, adminSvc AdminService, siteDir SiteDirectory, logger *slog.Logger) *Handler {
	return &Handler{
		numbering: numberingSvc,
		registry:  registrySvc,
		admin:     adminSvc,
		sites:     siteDir,
		logger:    logger,
	}
}

// HealthChecker reports readiness of a dependency.
type HealthChecker func(ctx context.Context) error

// NewRouter wires the middleware chain and all endpoints. Everything except
// health and metrics requires authentication: audit attribution needs an
// actor on every path that can touch a registry.
func NewRouter(h *Handler, validator auth.JWTValidator, logger *slog.Logger, health HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth(health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, logger))

		r.Route("/documents", func(r chi.Router) {
			r.Post("/numbers", h.handleGenerate)
			r.Post("/numbers/reserve", h.handleReserve)
			r.Get("/types/{code}/verify", h.handleVerifySequence)
		})

		r.Route("/registries", func(r chi.Router) {
			r.Get("/", h.handleGetByNumber)
			r.Route("/{registryID}", func(r chi.Router) {
				r.Get("/", h.handleGetRegistry)
				r.Post("/link", h.handleLink)
				r.Post("/status", h.handleUpdateStatus)
				r.Post("/lock", h.handleLock)
				r.Post("/unlock", h.handleUnlock)
				r.Post("/void", h.handleVoid)
				r.Get("/can-edit", h.handleCanEdit)
				r.Get("/history", h.handleHistory)
				r.Get("/compliance", h.handleCompliance)
				r.Get("/audit/verify", h.handleVerifyChain)
				r.Post("/access", h.handleRecordAccess)
				r.Post("/print", h.handleRecordPrint)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/document-types", h.handleCreateType)
			r.Get("/document-types", h.handleListTypes)
			r.Get("/document-types/{code}", h.handleGetType)
			r.Put("/document-types/{code}", h.handleUpdateType)
			r.Post("/document-types/{code}/counters", h.handleProvisionCounter)
			r.Post("/sites", h.handleCreateSite)
			r.Get("/sites", h.handleListSites)
		})
	})

	return r
}

func handleHealth(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses so every
// handler produces the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(domerrors.CodeInternal)
	message := "internal error"

	var domErr *domerrors.Error
	if errors.As(err, &domErr) {
		status = domerrors.ToHTTPStatus(domErr.Code)
		code = string(domErr.Code)
		message = domErr.Message
	}
	if domerrors.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domerrors.New(domerrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}

func registryIDParam(r *http.Request) (id.RegistryID, error) {
	return id.ParseRegistryID(chi.URLParam(r, "registryID"))
}

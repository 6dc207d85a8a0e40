package httptransport

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	numbering "registrar/internal/numbering/models"
	"registrar/internal/sites"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

type documentTypeRequest struct {
	Code              string            `json:"code"`
	Name              string            `json:"name"`
	NumberingPattern  string            `json:"numbering_pattern"`
	ResetCycle        string            `json:"reset_cycle"`
	StartingNumber    int               `json:"starting_number"`
	NumberLength      int               `json:"number_length"`
	IncrementBy       int               `json:"increment_by"`
	SupportsModifiers bool              `json:"supports_modifiers"`
	ModifierSeparator string            `json:"modifier_separator,omitempty"`
	ModifierOptions   map[string]string `json:"modifier_options,omitempty"`

	RequiresSiteCode bool `json:"requires_site_code"`
	RequiresYear     bool `json:"requires_year"`
	RequiresMonth    bool `json:"requires_month"`

	ProtectAfterStatus  string   `json:"protect_after_status,omitempty"`
	VoidOnlyStatuses    []string `json:"void_only_statuses,omitempty"`
	LockAmountThreshold *float64 `json:"lock_amount_threshold,omitempty"`

	IsActive bool `json:"is_active"`
}

func (req documentTypeRequest) toModel() (*numbering.DocumentType, error) {
	cycle, err := numbering.ParseResetCycle(req.ResetCycle)
	if err != nil {
		return nil, err
	}
	return &numbering.DocumentType{
		Code:                req.Code,
		Name:                req.Name,
		NumberingPattern:    req.NumberingPattern,
		ResetCycle:          cycle,
		StartingNumber:      req.StartingNumber,
		NumberLength:        req.NumberLength,
		IncrementBy:         req.IncrementBy,
		SupportsModifiers:   req.SupportsModifiers,
		ModifierSeparator:   req.ModifierSeparator,
		ModifierOptions:     req.ModifierOptions,
		RequiresSiteCode:    req.RequiresSiteCode,
		RequiresYear:        req.RequiresYear,
		RequiresMonth:       req.RequiresMonth,
		ProtectAfterStatus:  req.ProtectAfterStatus,
		VoidOnlyStatuses:    req.VoidOnlyStatuses,
		LockAmountThreshold: req.LockAmountThreshold,
		IsActive:            req.IsActive,
	}, nil
}

type documentTypeResponse struct {
	documentTypeRequest
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toTypeResponse(t *numbering.DocumentType) documentTypeResponse {
	return documentTypeResponse{
		documentTypeRequest: documentTypeRequest{
			Code:                t.Code,
			Name:                t.Name,
			NumberingPattern:    t.NumberingPattern,
			ResetCycle:          string(t.ResetCycle),
			StartingNumber:      t.StartingNumber,
			NumberLength:        t.NumberLength,
			IncrementBy:         t.IncrementBy,
			SupportsModifiers:   t.SupportsModifiers,
			ModifierSeparator:   t.ModifierSeparator,
			ModifierOptions:     t.ModifierOptions,
			RequiresSiteCode:    t.RequiresSiteCode,
			RequiresYear:        t.RequiresYear,
			RequiresMonth:       t.RequiresMonth,
			ProtectAfterStatus:  t.ProtectAfterStatus,
			VoidOnlyStatuses:    t.VoidOnlyStatuses,
			LockAmountThreshold: t.LockAmountThreshold,
			IsActive:            t.IsActive,
		},
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (h *Handler) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var req documentTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	docType, err := req.toModel()
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := h.admin.CreateType(r.Context(), docType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTypeResponse(created))
}

func (h *Handler) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	var req documentTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.Code = chi.URLParam(r, "code")
	docType, err := req.toModel()
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.admin.UpdateType(r.Context(), docType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTypeResponse(updated))
}

func (h *Handler) handleGetType(w http.ResponseWriter, r *http.Request) {
	docType, err := h.admin.GetType(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTypeResponse(docType))
}

func (h *Handler) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.admin.ListTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]documentTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, toTypeResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

type provisionCounterRequest struct {
	SiteID string `json:"site_id,omitempty"`
}

func (h *Handler) handleProvisionCounter(w http.ResponseWriter, r *http.Request) {
	var req provisionCounterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	siteID, err := optionalSiteID(req.SiteID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.ProvisionCounter(r.Context(), chi.URLParam(r, "code"), siteID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type siteRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type siteResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func (h *Handler) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req siteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	now := requestcontext.Now(r.Context())
	site := &sites.Site{
		ID:        id.NewSiteID(),
		Code:      req.Code,
		Name:      req.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := site.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := h.sites.Create(r.Context(), site); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			writeError(w, domerrors.Newf(domerrors.CodeConflict, "site code %q already exists", site.Code))
			return
		}
		writeError(w, domerrors.Wrap(err, domerrors.CodeInternal, "create site"))
		return
	}
	writeJSON(w, http.StatusCreated, siteResponse{
		ID: site.ID.String(), Code: site.Code, Name: site.Name, IsActive: site.IsActive,
	})
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	all, err := h.sites.List(r.Context())
	if err != nil {
		writeError(w, domerrors.Wrap(err, domerrors.CodeInternal, "list sites"))
		return
	}
	out := make([]siteResponse, 0, len(all))
	for _, s := range all {
		out = append(out, siteResponse{ID: s.ID.String(), Code: s.Code, Name: s.Name, IsActive: s.IsActive})
	}
	writeJSON(w, http.StatusOK, out)
}

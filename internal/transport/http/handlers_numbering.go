package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	numberingservice "registrar/internal/numbering/service"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/requestcontext"
)

type generateRequest struct {
	TypeCode         string         `json:"type_code"`
	SiteID           string         `json:"site_id,omitempty"`
	DocumentableType string         `json:"documentable_type"`
	DocumentableID   string         `json:"documentable_id"`
	Modifiers        []string       `json:"modifiers,omitempty"`
	Status           string         `json:"status,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	siteID, err := optionalSiteID(req.SiteID)
	if err != nil {
		writeError(w, err)
		return
	}
	ref, err := parseRef(req.DocumentableType, req.DocumentableID)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := h.numbering.Generate(r.Context(), numberingservice.GenerateRequest{
		TypeCode:  req.TypeCode,
		SiteID:    siteID,
		Ref:       ref,
		Modifiers: req.Modifiers,
		Status:    req.Status,
		Metadata:  req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistryResponse(created))
}

type reserveRequest struct {
	TypeCode  string   `json:"type_code"`
	SiteID    string   `json:"site_id,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	siteID, err := optionalSiteID(req.SiteID)
	if err != nil {
		writeError(w, err)
		return
	}

	reserved, err := h.numbering.Reserve(r.Context(), req.TypeCode, siteID, req.Modifiers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRegistryResponse(reserved))
}

type linkRequest struct {
	DocumentableType string `json:"documentable_type"`
	DocumentableID   string `json:"documentable_id"`
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req linkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ref, err := parseRef(req.DocumentableType, req.DocumentableID)
	if err != nil {
		writeError(w, err)
		return
	}

	linked, err := h.numbering.Link(r.Context(), registryID, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(linked))
}

type verificationResponse struct {
	TypeCode   string `json:"type_code"`
	SiteID     string `json:"site_id,omitempty"`
	Year       int    `json:"year"`
	Issued     int    `json:"issued"`
	Gaps       []int  `json:"gaps,omitempty"`
	Duplicates []int  `json:"duplicates,omitempty"`
	Intact     bool   `json:"intact"`
}

func (h *Handler) handleVerifySequence(w http.ResponseWriter, r *http.Request) {
	typeCode := chi.URLParam(r, "code")

	year := requestcontext.Now(r.Context()).Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, domerrors.New(domerrors.CodeInvalidInput, "invalid year"))
			return
		}
		year = parsed
	}
	siteID, err := optionalSiteID(r.URL.Query().Get("site_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := h.numbering.VerifySequence(r.Context(), typeCode, siteID, year)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := verificationResponse{
		TypeCode:   report.TypeCode,
		Year:       report.Year,
		Issued:     report.Issued,
		Gaps:       report.Gaps,
		Duplicates: report.Duplicates,
		Intact:     report.Intact(),
	}
	if report.SiteID != nil {
		resp.SiteID = report.SiteID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func optionalSiteID(raw string) (*id.SiteID, error) {
	if raw == "" {
		return nil, nil
	}
	siteID, err := id.ParseSiteID(raw)
	if err != nil {
		return nil, err
	}
	return &siteID, nil
}

func parseRef(kindRaw, idRaw string) (id.DocumentRef, error) {
	kind, err := id.ParseDocumentKind(kindRaw)
	if err != nil {
		return id.DocumentRef{}, err
	}
	docID, err := uuid.Parse(idRaw)
	if err != nil {
		return id.DocumentRef{}, domerrors.Newf(domerrors.CodeInvalidInput, "invalid documentable id: %q", idRaw)
	}
	return id.NewDocumentRef(kind, docID)
}

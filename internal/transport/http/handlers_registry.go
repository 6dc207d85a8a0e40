package httptransport

import (
	"net/http"
	"strconv"

	domerrors "registrar/pkg/domain-errors"
)

func (h *Handler) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	row, err := h.registry.Get(r.Context(), registryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

func (h *Handler) handleGetByNumber(w http.ResponseWriter, r *http.Request) {
	fullNumber := r.URL.Query().Get("full_number")
	row, err := h.registry.GetByFullNumber(r.Context(), fullNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	row, err := h.registry.UpdateStatus(r.Context(), registryID, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	row, err := h.registry.Lock(r.Context(), registryID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	// The reason is recorded but not required; unlocking without one stays
	// a one-call operation.
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	row, err := h.registry.Unlock(r.Context(), registryID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

func (h *Handler) handleVoid(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req reasonRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	row, err := h.registry.Void(r.Context(), registryID, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistryResponse(row))
}

type canEditResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func (h *Handler) handleCanEdit(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var amount *float64
	if raw := r.URL.Query().Get("amount"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, domerrors.New(domerrors.CodeInvalidInput, "invalid amount"))
			return
		}
		amount = &parsed
	}

	decision, err := h.registry.CanEdit(r.Context(), registryID, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, canEditResponse{Allowed: decision.Allowed, Reason: decision.Reason})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.registry.History(r.Context(), registryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registry_id": registryID.String(),
		"entries":     toAuditEntryResponses(entries),
	})
}

func (h *Handler) handleCompliance(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.registry.Compliance(r.Context(), registryID)
	if err != nil {
		writeError(w, err)
		return
	}
	flags := report.Flags
	if flags == nil {
		flags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registry_id": report.RegistryID,
		"flags":       flags,
	})
}

func (h *Handler) handleVerifyChain(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	badIndex, err := h.registry.VerifyAuditChain(r.Context(), registryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registry_id":        registryID.String(),
		"intact":             badIndex < 0,
		"first_tampered_idx": badIndex,
	})
}

func (h *Handler) handleRecordAccess(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.registry.RecordAccess(r.Context(), registryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecordPrint(w http.ResponseWriter, r *http.Request) {
	registryID, err := registryIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.registry.RecordPrint(r.Context(), registryID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

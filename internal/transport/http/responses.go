package httptransport

import (
	"time"

	registrymodels "registrar/internal/registry/models"

	"registrar/internal/audit"
)

// registryResponse is the JSON projection of a registry row.
type registryResponse struct {
	ID             string `json:"id"`
	DocumentNumber string `json:"document_number"`
	FullNumber     string `json:"full_number"`
	TypeCode       string `json:"type_code"`
	SiteID         string `json:"site_id,omitempty"`
	SiteCode       string `json:"site_code,omitempty"`
	Year           int    `json:"year"`
	Month          *int   `json:"month,omitempty"`
	Sequence       int    `json:"sequence"`
	Modifier       string `json:"modifier,omitempty"`

	DocumentableType string `json:"documentable_type"`
	DocumentableID   string `json:"documentable_id,omitempty"`

	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`

	IsLocked   bool       `json:"is_locked"`
	LockedAt   *time.Time `json:"locked_at,omitempty"`
	LockReason string     `json:"lock_reason,omitempty"`

	IsVoided   bool       `json:"is_voided"`
	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidReason string     `json:"void_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRegistryResponse(r *registrymodels.Registry) registryResponse {
	resp := registryResponse{
		ID:               r.ID.String(),
		DocumentNumber:   r.DocumentNumber,
		FullNumber:       r.FullNumber,
		TypeCode:         r.TypeCode,
		SiteCode:         r.SiteCode,
		Year:             r.Year,
		Month:            r.Month,
		Sequence:         r.Sequence,
		Modifier:         r.Modifier,
		DocumentableType: string(r.Ref.Kind),
		Status:           r.Status,
		PreviousStatus:   r.PreviousStatus,
		IsLocked:         r.IsLocked,
		LockedAt:         r.LockedAt,
		LockReason:       r.LockReason,
		IsVoided:         r.IsVoided,
		VoidedAt:         r.VoidedAt,
		VoidReason:       r.VoidReason,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.SiteID != nil {
		resp.SiteID = r.SiteID.String()
	}
	if !r.Ref.IsReserved() {
		resp.DocumentableID = r.Ref.ID.String()
	}
	return resp
}

// auditEntryResponse is the JSON projection of one audit trail entry.
type auditEntryResponse struct {
	ID              string         `json:"id"`
	Action          string         `json:"action"`
	OldValues       map[string]any `json:"old_values,omitempty"`
	NewValues       map[string]any `json:"new_values,omitempty"`
	Reason          string         `json:"reason,omitempty"`
	PerformedBy     string         `json:"performed_by"`
	PerformedByName string         `json:"performed_by_name,omitempty"`
	PerformedAt     time.Time      `json:"performed_at"`
	IPAddress       string         `json:"ip_address,omitempty"`
	Browser         string         `json:"browser,omitempty"`
	OS              string         `json:"os,omitempty"`
	Checksum        string         `json:"checksum"`
}

func toAuditEntryResponses(entries []audit.Entry) []auditEntryResponse {
	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			ID:              e.ID.String(),
			Action:          string(e.Action),
			OldValues:       e.OldValues,
			NewValues:       e.NewValues,
			Reason:          e.Reason,
			PerformedBy:     e.PerformedBy.String(),
			PerformedByName: e.PerformedByName,
			PerformedAt:     e.PerformedAt,
			IPAddress:       e.IPAddress,
			Browser:         e.Browser,
			OS:              e.OS,
			Checksum:        e.Checksum,
		})
	}
	return out
}

// Package service orchestrates document number generation: resolving
// configuration, allocating the next sequence under the counter lock, and
// committing the registry row, the legacy issued row, and the audit entry as
// one unit. Either a caller gets a fully registered number or nothing changed.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/audit"
	nummetrics "registrar/internal/numbering/metrics"
	"registrar/internal/numbering/models"
	"registrar/internal/numbering/pattern"
	registrymodels "registrar/internal/registry/models"
	"registrar/internal/sites"
	id "registrar/pkg/domain"
	domerrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// TypeStore resolves document type configuration.
type TypeStore interface {
	FindByCode(ctx context.Context, code string) (*models.DocumentType, error)
}

// CounterStore hands out exclusive access to sequence counter rows.
type CounterStore interface {
	AcquireForUpdate(ctx context.Context, typeCode string, siteID *id.SiteID) (*models.NumberPattern, error)
	Save(ctx context.Context, p *models.NumberPattern) error
}

// IssuedStore records the legacy parallel issued-number rows.
type IssuedStore interface {
	Record(ctx context.Context, n *models.IssuedNumber) error
	ListSequences(ctx context.Context, typeCode string, siteID *id.SiteID, year, month int) ([]int, error)
}

// RegistryStore persists the registry rows the service creates and links.
type RegistryStore interface {
	Create(ctx context.Context, r *registrymodels.Registry) error
	FindByID(ctx context.Context, registryID id.RegistryID) (*registrymodels.Registry, error)
	FindByRef(ctx context.Context, ref id.DocumentRef) (*registrymodels.Registry, error)
	UpdateRef(ctx context.Context, registryID id.RegistryID, ref id.DocumentRef) error
}

// SiteDirectory resolves sites referenced by generation requests.
type SiteDirectory interface {
	FindByID(ctx context.Context, siteID id.SiteID) (*sites.Site, error)
}

// AuditRecorder appends the audit entry accompanying each mutation.
type AuditRecorder interface {
	Record(ctx context.Context, e *audit.Entry) error
}

// GenerateRequest describes one number generation.
type GenerateRequest struct {
	TypeCode  string
	SiteID    *id.SiteID
	Ref       id.DocumentRef
	Modifiers []string
	// Status is the initial registry status; empty means draft.
	Status   string
	Metadata map[string]any
}

// Service orchestrates number generation and sequence verification.
type Service struct {
	types      TypeStore
	counters   CounterStore
	issued     IssuedStore
	registries RegistryStore
	sites      SiteDirectory
	recorder   AuditRecorder
	tx         StoreTx
	metrics    *nummetrics.Metrics
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

func WithMetrics(m *nummetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSiteDirectory(directory SiteDirectory) Option {
	return func(s *Service) { s.sites = directory }
}

func NewService(types TypeStore, counters CounterStore, issued IssuedStore, registries RegistryStore, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{
		types:      types,
		counters:   counters,
		issued:     issued,
		registries: registries,
		recorder:   recorder,
		tracer:     otel.Tracer("registrar/numbering"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx()
	}
	return s
}

// Generate issues the next number for a document type and registers it to the
// given business document.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*registrymodels.Registry, error) {
	if req.Ref.IsReserved() {
		return nil, domerrors.New(domerrors.CodeBadRequest, "use Reserve to issue a number without a document")
	}
	return s.generate(ctx, req)
}

// Reserve issues the next number without a business document behind it. The
// row is re-pointed at the real document later via Link; the sequence is
// consumed either way, so an abandoned reservation must be voided, never
// deleted.
func (s *Service) Reserve(ctx context.Context, typeCode string, siteID *id.SiteID, modifiers []string) (*registrymodels.Registry, error) {
	r, err := s.generate(ctx, GenerateRequest{
		TypeCode:  typeCode,
		SiteID:    siteID,
		Ref:       id.Reserved(),
		Modifiers: modifiers,
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementReservations()
	}
	return r, nil
}

func (s *Service) generate(ctx context.Context, req GenerateRequest) (*registrymodels.Registry, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "numbering.generate",
		trace.WithAttributes(attribute.String("type_code", req.TypeCode)))
	defer span.End()

	var created *registrymodels.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		docType, err := s.resolveType(txCtx, req.TypeCode)
		if err != nil {
			return err
		}
		siteCode, err := s.resolveSite(txCtx, docType, req.SiteID)
		if err != nil {
			return err
		}
		if err := validateModifiers(docType, req.Modifiers); err != nil {
			return err
		}
		if !req.Ref.IsReserved() {
			if _, err := s.registries.FindByRef(txCtx, req.Ref); err == nil {
				return domerrors.Newf(domerrors.CodeConflict,
					"document %s/%s already has a registered number", req.Ref.Kind, req.Ref.ID)
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return domerrors.Wrap(err, domerrors.CodeInternal, "check existing registration")
			}
		}

		counter, err := s.counters.AcquireForUpdate(txCtx, docType.Code, req.SiteID)
		if err != nil {
			switch {
			case errors.Is(err, sentinel.ErrContended):
				return domerrors.Wrap(err, domerrors.CodeContention, "sequence counter is busy, retry")
			case errors.Is(err, sentinel.ErrNotFound):
				return domerrors.Newf(domerrors.CodeInvariantViolation,
					"no sequence counter provisioned for type %q", docType.Code)
			}
			return domerrors.Wrap(err, domerrors.CodeInternal, "acquire sequence counter")
		}
		if !counter.IsActive {
			return domerrors.Newf(domerrors.CodeInvariantViolation,
				"sequence counter for type %q is inactive", docType.Code)
		}

		now := requestcontext.Now(txCtx)
		sequence, period := counter.Allocate(now, docType.StartingNumber, docType.IncrementBy)
		if err := s.counters.Save(txCtx, counter); err != nil {
			return domerrors.Wrap(err, domerrors.CodeInternal, "save sequence counter")
		}

		fullNumber, core, err := renderNumber(docType, counter, siteCode, period, sequence, req.Modifiers)
		if err != nil {
			return err
		}

		status := strings.TrimSpace(req.Status)
		if status == "" {
			status = registrymodels.StatusDraft
		}
		r := &registrymodels.Registry{
			ID:             id.NewRegistryID(),
			DocumentNumber: core,
			FullNumber:     fullNumber,
			TypeCode:       docType.Code,
			SiteID:         req.SiteID,
			SiteCode:       siteCode,
			Year:           period.Year,
			Sequence:       sequence,
			Modifier:       strings.Join(req.Modifiers, ","),
			Ref:            req.Ref,
			Status:         status,
			Metadata:       req.Metadata,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if docType.RequiresMonth || docType.ResetCycle == models.ResetMonthly {
			month := period.Month
			r.Month = &month
		}
		if err := s.registries.Create(txCtx, r); err != nil {
			if errors.Is(err, sentinel.ErrDuplicate) {
				// The counter is the single source of sequences; a duplicate
				// full number means the counter and the registry disagree.
				if s.metrics != nil {
					s.metrics.IncrementCollisions()
				}
				return domerrors.Wrap(err, domerrors.CodeCollision, "issued number already registered")
			}
			return domerrors.Wrap(err, domerrors.CodeInternal, "create registry row")
		}
		if err := s.issued.Record(txCtx, &models.IssuedNumber{
			DocumentNumber: fullNumber,
			TypeCode:       docType.Code,
			SiteID:         req.SiteID,
			Sequence:       sequence,
			Year:           period.Year,
			Month:          period.Month,
			IssuedDate:     now,
			Ref:            req.Ref,
			Status:         models.IssuedActive,
		}); err != nil {
			if errors.Is(err, sentinel.ErrDuplicate) {
				if s.metrics != nil {
					s.metrics.IncrementCollisions()
				}
				return domerrors.Wrap(err, domerrors.CodeCollision, "issued number already recorded")
			}
			return domerrors.Wrap(err, domerrors.CodeInternal, "record issued number")
		}

		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionCreate,
			NewValues: map[string]any{
				"full_number": r.FullNumber,
				"status":      r.Status,
				"sequence":    r.Sequence,
			},
		}); err != nil {
			return err
		}
		created = r
		return nil
	})
	if err != nil {
		if s.metrics != nil && domerrors.HasCode(err, domerrors.CodeContention) {
			s.metrics.IncrementContentions()
		}
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.String("full_number", created.FullNumber))
	if s.metrics != nil {
		s.metrics.IncrementGenerated(created.TypeCode)
		s.metrics.ObserveGenerate(start)
	}
	return created, nil
}

// Link re-points a reserved registry row at the real business document.
func (s *Service) Link(ctx context.Context, registryID id.RegistryID, ref id.DocumentRef) (*registrymodels.Registry, error) {
	var linked *registrymodels.Registry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.registries.FindByID(txCtx, registryID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return domerrors.New(domerrors.CodeNotFound, "registry row not found")
			}
			return domerrors.Wrap(err, domerrors.CodeInternal, "load registry row")
		}
		if err := r.CanLink(ref); err != nil {
			return err
		}

		oldRef := r.Ref
		r.ApplyLink(requestcontext.Now(txCtx), ref)
		if err := s.registries.UpdateRef(txCtx, r.ID, ref); err != nil {
			if errors.Is(err, sentinel.ErrDuplicate) {
				return domerrors.Newf(domerrors.CodeConflict,
					"document %s/%s already has a registered number", ref.Kind, ref.ID)
			}
			return domerrors.Wrap(err, domerrors.CodeInternal, "update registry ref")
		}

		oldValues, newValues := audit.Diff(
			map[string]any{"documentable_type": string(oldRef.Kind)},
			map[string]any{"documentable_type": string(ref.Kind), "documentable_id": ref.ID.String()},
		)
		if err := s.recorder.Record(txCtx, &audit.Entry{
			RegistryID: r.ID,
			TypeCode:   r.TypeCode,
			Action:     audit.ActionUpdate,
			OldValues:  oldValues,
			NewValues:  newValues,
		}); err != nil {
			return err
		}
		linked = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return linked, nil
}

// VerificationReport is the result of an offline sequence integrity walk.
type VerificationReport struct {
	TypeCode string
	SiteID   *id.SiteID
	Year     int

	Issued int
	// Gaps lists sequence values that should have been issued but never were.
	// A gap in a gapless series is evidence of a deleted record.
	Gaps []int
	// Duplicates lists sequence values issued more than once.
	Duplicates []int
}

// Intact reports whether the series shows neither gaps nor duplicates.
func (r VerificationReport) Intact() bool {
	return len(r.Gaps) == 0 && len(r.Duplicates) == 0
}

// VerifySequence walks the issued sequences for (typeCode, siteID, year) and
// reports gaps and duplicates. Read-only; it never repairs.
func (s *Service) VerifySequence(ctx context.Context, typeCode string, siteID *id.SiteID, year int) (VerificationReport, error) {
	report := VerificationReport{TypeCode: typeCode, SiteID: siteID, Year: year}

	docType, err := s.resolveType(ctx, typeCode)
	if err != nil {
		return report, err
	}

	// A monthly-reset counter legitimately restarts at the starting number
	// every month, so each month is its own monotone series. Walking the year
	// as one run would report every restart as a duplicate.
	periods := []int{0}
	if docType.ResetCycle == models.ResetMonthly {
		periods = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	}
	for _, month := range periods {
		sequences, err := s.issued.ListSequences(ctx, docType.Code, siteID, year, month)
		if err != nil {
			return report, domerrors.Wrap(err, domerrors.CodeInternal, "list issued sequences")
		}
		report.Issued += len(sequences)
		walkSeries(&report, sequences, docType.StartingNumber, docType.IncrementBy)
	}

	if s.metrics != nil {
		s.metrics.AddSequenceGaps(len(report.Gaps))
	}
	return report, nil
}

// walkSeries checks one monotone series against the expected stride and
// appends any gaps and duplicates to the report.
func walkSeries(report *VerificationReport, sequences []int, startingNumber, incrementBy int) {
	expected := startingNumber
	for _, seq := range sequences {
		switch {
		case seq == expected:
			expected += incrementBy
		case seq < expected:
			report.Duplicates = append(report.Duplicates, seq)
		default:
			for expected < seq {
				report.Gaps = append(report.Gaps, expected)
				expected += incrementBy
			}
			expected = seq + incrementBy
		}
	}
}

func (s *Service) resolveType(ctx context.Context, typeCode string) (*models.DocumentType, error) {
	typeCode = strings.TrimSpace(typeCode)
	if typeCode == "" {
		return nil, domerrors.New(domerrors.CodeBadRequest, "document type code is required")
	}
	docType, err := s.types.FindByCode(ctx, typeCode)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, domerrors.Newf(domerrors.CodeBadRequest, "unknown document type %q", typeCode)
		}
		return nil, domerrors.Wrap(err, domerrors.CodeInternal, "load document type")
	}
	if !docType.IsActive {
		return nil, domerrors.Newf(domerrors.CodeBadRequest, "document type %q is inactive", typeCode)
	}
	return docType, nil
}

func (s *Service) resolveSite(ctx context.Context, docType *models.DocumentType, siteID *id.SiteID) (string, error) {
	if siteID == nil {
		if docType.RequiresSiteCode {
			return "", domerrors.Newf(domerrors.CodeBadRequest, "document type %q requires a site", docType.Code)
		}
		return "", nil
	}
	if s.sites == nil {
		return "", domerrors.New(domerrors.CodeInternal, "no site directory configured")
	}
	site, err := s.sites.FindByID(ctx, *siteID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", domerrors.Newf(domerrors.CodeBadRequest, "unknown site %s", siteID)
		}
		return "", domerrors.Wrap(err, domerrors.CodeInternal, "load site")
	}
	if !site.IsActive {
		return "", domerrors.Newf(domerrors.CodeBadRequest, "site %q is inactive", site.Code)
	}
	return site.Code, nil
}

func validateModifiers(docType *models.DocumentType, modifiers []string) error {
	if len(modifiers) == 0 {
		return nil
	}
	if !docType.SupportsModifiers {
		return domerrors.Newf(domerrors.CodeBadRequest, "document type %q does not support modifiers", docType.Code)
	}
	for _, m := range modifiers {
		if !docType.AllowsModifier(m) {
			return domerrors.Newf(domerrors.CodeBadRequest, "modifier %q is not allowed for type %q", m, docType.Code)
		}
	}
	return nil
}

// renderNumber formats the core number and assembles the stored full number.
func renderNumber(docType *models.DocumentType, counter *models.NumberPattern, siteCode string, period models.PeriodContext, sequence int, modifiers []string) (full, core string, err error) {
	template := docType.NumberingPattern
	if counter.Pattern != "" {
		template = counter.Pattern
	}
	padWidth := docType.NumberLength
	if counter.NumberLength > 0 {
		padWidth = counter.NumberLength
	}

	core, err = pattern.Format(template, pattern.Values{
		Site:     siteCode,
		Code:     docType.Code,
		Year:     period.Year,
		Month:    period.Month,
		Sequence: sequence,
	}, padWidth)
	if err != nil {
		return "", "", err
	}

	full = counter.Prefix + core + counter.Suffix
	full = pattern.AppendModifiers(full, docType.ModifierSeparator, modifiers)
	return full, core, nil
}

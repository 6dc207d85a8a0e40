package domain

import (
	"github.com/google/uuid"

	domerrors "registrar/pkg/domain-errors"
)

// DocumentKind tags the business document type that owns a registry row.
// The set is closed at the application boundary; storage keeps the generic
// (type, id) pair so new kinds only need a constant here.
type DocumentKind string

const (
	KindPurchaseOrder  DocumentKind = "purchase_order"
	KindMaterialNote   DocumentKind = "material_note"
	KindBudgetTransfer DocumentKind = "budget_transfer"
	KindGoodsReceipt   DocumentKind = "goods_receipt"
	KindStockIssue     DocumentKind = "stock_issue"

	// KindReserved is the placeholder kind for numbers issued before the
	// owning business document exists. A reserved registry row is re-pointed
	// to a real document exactly once via Link.
	KindReserved DocumentKind = "reserved"
)

var knownKinds = map[DocumentKind]struct{}{
	KindPurchaseOrder:  {},
	KindMaterialNote:   {},
	KindBudgetTransfer: {},
	KindGoodsReceipt:   {},
	KindStockIssue:     {},
	KindReserved:       {},
}

// ParseDocumentKind validates and returns a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if _, ok := knownKinds[k]; !ok {
		return "", domerrors.Newf(domerrors.CodeInvalidInput, "unknown document kind: %q", s)
	}
	return k, nil
}

func (k DocumentKind) String() string { return string(k) }

// DocumentRef is the typed form of the persisted polymorphic
// (documentable_type, documentable_id) pair.
type DocumentRef struct {
	Kind DocumentKind
	ID   uuid.UUID
}

// Reserved returns the placeholder reference used between Reserve and Link.
func Reserved() DocumentRef {
	return DocumentRef{Kind: KindReserved}
}

// IsReserved reports whether the reference is still the placeholder.
func (r DocumentRef) IsReserved() bool { return r.Kind == KindReserved }

// NewDocumentRef builds a validated reference to a concrete business document.
func NewDocumentRef(kind DocumentKind, id uuid.UUID) (DocumentRef, error) {
	if _, ok := knownKinds[kind]; !ok {
		return DocumentRef{}, domerrors.Newf(domerrors.CodeInvalidInput, "unknown document kind: %q", kind)
	}
	if kind == KindReserved {
		return DocumentRef{}, domerrors.New(domerrors.CodeInvalidInput, "cannot build a concrete reference with the reserved kind")
	}
	if id == uuid.Nil {
		return DocumentRef{}, domerrors.New(domerrors.CodeInvalidInput, "document id must not be the nil UUID")
	}
	return DocumentRef{Kind: kind, ID: id}, nil
}

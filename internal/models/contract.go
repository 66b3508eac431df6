package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ContractKind identifies one of the six structurally identical contract
// record types. The lifecycle is the same for every kind; only the opaque
// payload shape differs.
type ContractKind string

const (
	KindNewRegistration ContractKind = "new-registration"
	KindRenewal         ContractKind = "renewal"
	KindUniform         ContractKind = "uniform"
	KindMeal            ContractKind = "meal"
	KindService         ContractKind = "service"
	KindBook            ContractKind = "book"
)

// ContractKinds lists every kind in presentation order.
var ContractKinds = []ContractKind{
	KindNewRegistration,
	KindRenewal,
	KindUniform,
	KindMeal,
	KindService,
	KindBook,
}

var kindLabels = map[ContractKind]string{
	KindNewRegistration: "Yeni Kayıt",
	KindRenewal:         "Kayıt Yenileme",
	KindUniform:         "Forma Sözleşmesi",
	KindMeal:            "Yemek Sözleşmesi",
	KindService:         "Servis Sözleşmesi",
	KindBook:            "Kitap Sözleşmesi",
}

// ParseContractKind maps a route slug to a kind.
func ParseContractKind(slug string) (ContractKind, bool) {
	switch slug {
	case "new-registrations", string(KindNewRegistration):
		return KindNewRegistration, true
	case "renewals", string(KindRenewal):
		return KindRenewal, true
	case "uniform-contracts", string(KindUniform):
		return KindUniform, true
	case "meal-contracts", string(KindMeal):
		return KindMeal, true
	case "service-contracts", string(KindService):
		return KindService, true
	case "book-contracts", string(KindBook):
		return KindBook, true
	}
	return "", false
}

var kindSlugs = map[ContractKind]string{
	KindNewRegistration: "new-registrations",
	KindRenewal:         "renewals",
	KindUniform:         "uniform-contracts",
	KindMeal:            "meal-contracts",
	KindService:         "service-contracts",
	KindBook:            "book-contracts",
}

// RouteSlug returns the plural URL segment the kind is served under.
func (k ContractKind) RouteSlug() string {
	if slug, ok := kindSlugs[k]; ok {
		return slug
	}
	return string(k)
}

// Label returns the human-facing document title for the kind.
func (k ContractKind) Label() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return string(k)
}

// Contract is one record of any kind: a student reference plus an opaque
// JSON payload. Payloads are stored wholesale and replaced wholesale on
// update; PDFPath is set once a rendered document has been archived.
type Contract struct {
	ID        string         `db:"id" json:"id"`
	StudentID string         `db:"student_id" json:"student_id"`
	Data      types.JSONText `db:"data" json:"data"`
	PDFPath   *string        `db:"pdf_path" json:"pdf_path,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// ContractDetail joins a contract with minimal student display fields.
type ContractDetail struct {
	Contract
	StudentFirstName string `db:"first_name" json:"student_first_name"`
	StudentLastName  string `db:"last_name" json:"student_last_name"`
	StudentTCNumber  string `db:"tc_number" json:"student_tc_number"`
}

// HistoryEntry is a contract detail tagged with its kind, used by the
// aggregated cross-kind history view.
type HistoryEntry struct {
	ContractDetail
	Kind      ContractKind `json:"kind"`
	KindLabel string       `json:"kind_label"`
}

// HistoryItemRef addresses one contract across kinds for bulk deletion.
type HistoryItemRef struct {
	Kind ContractKind `json:"kind" validate:"required"`
	ID   string       `json:"id" validate:"required"`
}

// HistoryFilter narrows the aggregated history view.
type HistoryFilter struct {
	Search string
	Kind   ContractKind
}

// BulkDeleteReport summarises a cross-kind bulk delete: counts only, per
// item detail is not reported.
type BulkDeleteReport struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Outcome classifies the report as all / none / partial.
func (r BulkDeleteReport) Outcome() string {
	switch {
	case r.Failed == 0:
		return "all"
	case r.Succeeded == 0:
		return "none"
	default:
		return "partial"
	}
}

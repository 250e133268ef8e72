package integration

import (
	"context"
	"time"
)

// LegacyModel names a model on the legacy instance
type LegacyModel string

const (
	LegacyModelTaxClassification LegacyModel = "tax.classification"
	LegacyModelCategory          LegacyModel = "product.category"
	LegacyModelPartner           LegacyModel = "res.partner"
)

// IsValid returns true if the model is synced
func (m LegacyModel) IsValid() bool {
	switch m {
	case LegacyModelTaxClassification, LegacyModelCategory, LegacyModelPartner:
		return true
	default:
		return false
	}
}

// String returns the string representation of LegacyModel
func (m LegacyModel) String() string {
	return string(m)
}

// SyncOrder lists the models in dependency order: categories reference
// classifications, and partner addresses reference their parent partner.
var SyncOrder = []LegacyModel{LegacyModelTaxClassification, LegacyModelCategory, LegacyModelPartner}

// LegacyQuery selects a page of records written after Since
type LegacyQuery struct {
	Since  *time.Time
	Limit  int
	Offset int
}

// LegacyTaxClassification is a tax.classification record
type LegacyTaxClassification struct {
	ID        int64
	Name      string
	Code      string
	Code18    string
	WriteDate time.Time
}

// LegacyCategory is a product.category record. Zero ids mean unset.
type LegacyCategory struct {
	ID                  int64
	Name                string
	Code                string
	ParentID            int64
	TaxClassificationID int64
	WriteDate           time.Time
}

// LegacyPartner is a res.partner record
type LegacyPartner struct {
	ID             int64
	Name           string
	IsCompany      bool
	ParentID       int64
	Type           string
	Ref            string
	Vat            string
	Phone          string
	Email          string
	Street         string
	City           string
	AccountName    string
	AccountAddress string
	AccountPhone   string
	IsCustomer     bool
	IsSupplier     bool
	Active         bool
	WriteDate      time.Time
}

// LegacySource reads master data from the legacy instance. Records come
// parents first within a page where the source can order them that way.
type LegacySource interface {
	TaxClassifications(ctx context.Context, q LegacyQuery) ([]LegacyTaxClassification, error)
	Categories(ctx context.Context, q LegacyQuery) ([]LegacyCategory, error)
	Partners(ctx context.Context, q LegacyQuery) ([]LegacyPartner, error)
}

// SyncResult summarizes one run over a model
type SyncResult struct {
	Model        LegacyModel   `json:"model"`
	Status       SyncStatus    `json:"status"`
	TotalCount   int           `json:"total_count"`
	CreatedCount int           `json:"created_count"`
	UpdatedCount int           `json:"updated_count"`
	FailedCount  int           `json:"failed_count"`
	FailedItems  []SyncFailure `json:"failed_items,omitempty"`
	SyncedAt     time.Time     `json:"synced_at"`
}

// SyncFailure is a record that could not be imported
type SyncFailure struct {
	ExternalID   int64  `json:"external_id"`
	ErrorMessage string `json:"error_message"`
}

// Fail records a failed record
func (r *SyncResult) Fail(externalID int64, err error) {
	r.FailedCount++
	r.FailedItems = append(r.FailedItems, SyncFailure{ExternalID: externalID, ErrorMessage: err.Error()})
}

// Finish derives the overall status
func (r *SyncResult) Finish(at time.Time) {
	r.SyncedAt = at
	switch {
	case r.FailedCount == 0:
		r.Status = SyncStatusSuccess
	case r.FailedCount < r.TotalCount:
		r.Status = SyncStatusPartial
	default:
		r.Status = SyncStatusFailed
	}
}

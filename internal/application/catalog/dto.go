package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// CreateCategoryRequest creates a root category, or a child when ParentID is set
type CreateCategoryRequest struct {
	Code                string     `json:"code" binding:"required,max=50"`
	Name                string     `json:"name" binding:"required,max=100"`
	ParentID            *uuid.UUID `json:"parent_id"`
	TaxClassificationID *uuid.UUID `json:"tax_classification_id"`
}

// UpdateCategoryRequest renames a category
type UpdateCategoryRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=100"`
}

// SetCategoryTaxRequest assigns or clears the tax classification
type SetCategoryTaxRequest struct {
	TaxClassificationID *uuid.UUID `json:"tax_classification_id"`
}

// CategoryResponse is a category with its computed names
type CategoryResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Code                string     `json:"code"`
	Name                string     `json:"name"`
	ParentID            *uuid.UUID `json:"parent_id,omitempty"`
	Level               int        `json:"level"`
	CompleteName        string     `json:"complete_name"`
	FullCode            string     `json:"full_code"`
	TaxClassificationID *uuid.UUID `json:"tax_classification_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ToCategoryResponse converts a category to its response
func ToCategoryResponse(c *catalog.ProductCategory) CategoryResponse {
	return CategoryResponse{
		ID:                  c.ID,
		Code:                c.Code,
		Name:                c.Name,
		ParentID:            c.ParentID,
		Level:               c.Level,
		CompleteName:        c.CompleteName,
		FullCode:            c.FullCode,
		TaxClassificationID: c.TaxClassificationID,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// TaxClassificationRequest creates or updates a tax classification
type TaxClassificationRequest struct {
	Name   string `json:"name" binding:"required,max=200"`
	Code   string `json:"code" binding:"omitempty,numeric,max=19"`
	Code18 string `json:"code18" binding:"omitempty,numeric,len=18"`
}

// TaxClassificationResponse is a tax classification
type TaxClassificationResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Code   string    `json:"code"`
	Code18 string    `json:"code18"`
}

// ToTaxClassificationResponse converts a tax classification to its response
func ToTaxClassificationResponse(t *catalog.TaxClassification) TaxClassificationResponse {
	return TaxClassificationResponse{ID: t.ID, Name: t.Name, Code: t.Code, Code18: t.Code18}
}

// CreateProductRequest creates a product
type CreateProductRequest struct {
	DefaultCode         string          `json:"default_code" binding:"max=64"`
	Name                string          `json:"name" binding:"required,max=200"`
	Type                string          `json:"type" binding:"omitempty,oneof=product consu service"`
	CategoryID          uuid.UUID       `json:"category_id" binding:"required"`
	UomID               uuid.UUID       `json:"uom_id" binding:"required"`
	UomPOID             *uuid.UUID      `json:"uom_po_id"`
	ListPrice           decimal.Decimal `json:"list_price"`
	DescriptionPurchase string          `json:"description_purchase"`
	CustomerTaxIDs      []uuid.UUID     `json:"customer_tax_ids"`
	SupplierTaxIDs      []uuid.UUID     `json:"supplier_tax_ids"`
}

// AddSellerRequest adds a vendor price to a product
type AddSellerRequest struct {
	PartnerID uuid.UUID       `json:"partner_id" binding:"required"`
	Price     decimal.Decimal `json:"price"`
	MinQty    decimal.Decimal `json:"min_qty"`
	Delay     int             `json:"delay" binding:"min=0"`
	DateStart *time.Time      `json:"date_start"`
	DateEnd   *time.Time      `json:"date_end"`
}

// SellerResponse is a vendor price list entry
type SellerResponse struct {
	ID          uuid.UUID       `json:"id"`
	PartnerID   uuid.UUID       `json:"partner_id"`
	PartnerName string          `json:"partner_name"`
	Sequence    int             `json:"sequence"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	MinQty      decimal.Decimal `json:"min_qty"`
	Delay       int             `json:"delay"`
	DateStart   *time.Time      `json:"date_start,omitempty"`
	DateEnd     *time.Time      `json:"date_end,omitempty"`
}

// ProductResponse is a product with its sellers
type ProductResponse struct {
	ID                  uuid.UUID        `json:"id"`
	DefaultCode         string           `json:"default_code"`
	Name                string           `json:"name"`
	DisplayName         string           `json:"display_name"`
	Type                string           `json:"type"`
	CategoryID          uuid.UUID        `json:"category_id"`
	UomID               uuid.UUID        `json:"uom_id"`
	UomPOID             uuid.UUID        `json:"uom_po_id"`
	ListPrice           decimal.Decimal  `json:"list_price"`
	DescriptionPurchase string           `json:"description_purchase"`
	CustomerTaxIDs      []uuid.UUID      `json:"customer_tax_ids"`
	SupplierTaxIDs      []uuid.UUID      `json:"supplier_tax_ids"`
	Sellers             []SellerResponse `json:"sellers"`
}

// ToProductResponse converts a product to its response
func ToProductResponse(p *catalog.Product) ProductResponse {
	sellers := make([]SellerResponse, len(p.Sellers))
	for i, s := range p.Sellers {
		sellers[i] = SellerResponse{
			ID:          s.ID,
			PartnerID:   s.PartnerID,
			PartnerName: s.PartnerName,
			Sequence:    s.Sequence,
			Price:       s.Price,
			Currency:    s.Currency,
			MinQty:      s.MinQty,
			Delay:       s.Delay,
			DateStart:   s.DateStart,
			DateEnd:     s.DateEnd,
		}
	}
	return ProductResponse{
		ID:                  p.ID,
		DefaultCode:         p.DefaultCode,
		Name:                p.Name,
		DisplayName:         p.DisplayName(),
		Type:                string(p.Type),
		CategoryID:          p.CategoryID,
		UomID:               p.UomID,
		UomPOID:             p.UomPOID,
		ListPrice:           p.ListPrice,
		DescriptionPurchase: p.DescriptionPurchase,
		CustomerTaxIDs:      taxIDs(p.CustomerTaxes),
		SupplierTaxIDs:      taxIDs(p.SupplierTaxes),
		Sellers:             sellers,
	}
}

func taxIDs(taxes []catalog.Tax) []uuid.UUID {
	ids := make([]uuid.UUID, len(taxes))
	for i, t := range taxes {
		ids[i] = t.ID
	}
	return ids
}

// CategoryImportResult summarizes a category sheet import
type CategoryImportResult struct {
	TotalRows              int                  `json:"total_rows"`
	Encoding               string               `json:"encoding"`
	CategoriesCreated      int                  `json:"categories_created"`
	CategoriesUpdated      int                  `json:"categories_updated"`
	ClassificationsCreated int                  `json:"classifications_created"`
	ErrorRows              int                  `json:"error_rows"`
	Errors                 []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated            bool                 `json:"is_truncated,omitempty"`
}

// CreateAttributeRequest creates a variant attribute with its values
type CreateAttributeRequest struct {
	Name    string   `json:"name" binding:"required,max=100"`
	Comment string   `json:"comment" binding:"max=200"`
	Values  []string `json:"values" binding:"omitempty,dive,required,max=100"`
}

// AddAttributeValueRequest appends one value to an attribute
type AddAttributeValueRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// AttributeValueResponse is one attribute value
type AttributeValueResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Sequence int       `json:"sequence"`
}

// AttributeResponse is an attribute with its ordered values
type AttributeResponse struct {
	ID          uuid.UUID                `json:"id"`
	Name        string                   `json:"name"`
	Comment     string                   `json:"comment,omitempty"`
	DisplayName string                   `json:"display_name"`
	Values      []AttributeValueResponse `json:"values"`
}

// ToAttributeResponse converts an attribute to its response
func ToAttributeResponse(a *catalog.ProductAttribute) AttributeResponse {
	values := make([]AttributeValueResponse, len(a.Values))
	for i, v := range a.Values {
		values[i] = AttributeValueResponse{ID: v.ID, Name: v.Name, Sequence: v.Sequence}
	}
	return AttributeResponse{
		ID:          a.ID,
		Name:        a.Name,
		Comment:     a.Comment,
		DisplayName: a.DisplayName(),
		Values:      values,
	}
}

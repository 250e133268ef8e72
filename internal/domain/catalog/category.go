package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// MaxCategoryDepth is the maximum depth of the category tree
const MaxCategoryDepth = 5

// CategoryNameSeparator joins names in CompleteName
const CategoryNameSeparator = " / "

// ProductCategory is a node in the product category tree.
// FullCode concatenates the codes of all ancestors, which is the code
// printed next to products on tax invoices.
type ProductCategory struct {
	shared.TenantAggregateRoot
	Code                string     `gorm:"type:varchar(50);not null"`
	Name                string     `gorm:"type:varchar(100);not null"`
	ParentID            *uuid.UUID `gorm:"type:uuid;index"`
	Path                string     `gorm:"type:varchar(500);not null;index"`
	Level               int        `gorm:"not null;default:0"`
	CompleteName        string     `gorm:"type:varchar(500);not null"`
	FullCode            string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_category_tenant_full_code,priority:2"`
	TaxClassificationID *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ProductCategory) TableName() string {
	return "product_categories"
}

// NewProductCategory creates a root category
func NewProductCategory(tenantID uuid.UUID, code, name string) (*ProductCategory, error) {
	if err := validateCategory(code, name); err != nil {
		return nil, err
	}

	category := &ProductCategory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.TrimSpace(code),
		Name:                strings.TrimSpace(name),
	}
	category.Path = category.ID.String()
	category.CompleteName = category.Name
	category.FullCode = category.Code

	category.AddDomainEvent(NewCategoryCreatedEvent(category))
	return category, nil
}

// NewChildProductCategory creates a category under parent
func NewChildProductCategory(tenantID uuid.UUID, code, name string, parent *ProductCategory) (*ProductCategory, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	if parent.TenantID != tenantID {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category belongs to another company")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}
	if err := validateCategory(code, name); err != nil {
		return nil, err
	}

	parentID := parent.ID
	category := &ProductCategory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                strings.TrimSpace(code),
		Name:                strings.TrimSpace(name),
		ParentID:            &parentID,
		Level:               parent.Level + 1,
	}
	category.Path = parent.Path + "/" + category.ID.String()
	category.inheritNames(parent)

	category.AddDomainEvent(NewCategoryCreatedEvent(category))
	return category, nil
}

// Rename changes name and code; descendants must be refreshed with RefreshFromParent
func (c *ProductCategory) Rename(code, name string, parent *ProductCategory) error {
	if err := validateCategory(code, name); err != nil {
		return err
	}
	c.Code = strings.TrimSpace(code)
	c.Name = strings.TrimSpace(name)
	if parent != nil {
		c.inheritNames(parent)
	} else {
		c.CompleteName = c.Name
		c.FullCode = c.Code
	}
	c.Touch()
	return nil
}

// RefreshFromParent recomputes CompleteName and FullCode after an ancestor changed
func (c *ProductCategory) RefreshFromParent(parent *ProductCategory) {
	c.inheritNames(parent)
	c.Touch()
}

// SetTaxClassification assigns or clears (nil) the tax classification
func (c *ProductCategory) SetTaxClassification(classificationID *uuid.UUID) {
	c.TaxClassificationID = classificationID
	c.Touch()
	if classificationID != nil {
		c.AddDomainEvent(NewCategoryTaxClassifiedEvent(c, *classificationID))
	}
}

// IsRoot reports whether the category has no parent
func (c *ProductCategory) IsRoot() bool {
	return c.ParentID == nil
}

// AncestorIDs returns the IDs on the materialized path, root first, excluding c
func (c *ProductCategory) AncestorIDs() []uuid.UUID {
	parts := strings.Split(c.Path, "/")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts[:len(parts)-1] {
		if id, err := uuid.Parse(p); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (c *ProductCategory) inheritNames(parent *ProductCategory) {
	c.CompleteName = parent.CompleteName + CategoryNameSeparator + c.Name
	c.FullCode = parent.FullCode + c.Code
}

// ResolveTaxClassification walks chain (leaf first) and returns the first
// assigned tax classification, or nil.
func ResolveTaxClassification(chain []ProductCategory) *uuid.UUID {
	for i := range chain {
		if chain[i].TaxClassificationID != nil {
			return chain[i].TaxClassificationID
		}
	}
	return nil
}

func validateCategory(code, name string) error {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot be empty")
	}
	if utf8.RuneCountInString(code) > 20 {
		return shared.NewDomainError("INVALID_CODE", "Category code cannot exceed 20 characters")
	}
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}

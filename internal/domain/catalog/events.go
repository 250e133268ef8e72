package catalog

import (
	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

const (
	AggregateTypeProductCategory = "ProductCategory"
	AggregateTypeProduct         = "Product"
)

const (
	EventTypeCategoryCreated       = "CategoryCreated"
	EventTypeCategoryTaxClassified = "CategoryTaxClassified"
	EventTypeProductCreated        = "ProductCreated"
)

// CategoryCreatedEvent is published when a category is created
type CategoryCreatedEvent struct {
	shared.BaseDomainEvent
	CategoryID uuid.UUID  `json:"category_id"`
	FullCode   string     `json:"full_code"`
	Name       string     `json:"name"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
}

// NewCategoryCreatedEvent creates a new CategoryCreatedEvent
func NewCategoryCreatedEvent(c *ProductCategory) *CategoryCreatedEvent {
	return &CategoryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCategoryCreated, AggregateTypeProductCategory, c.ID, c.TenantID),
		CategoryID:      c.ID,
		FullCode:        c.FullCode,
		Name:            c.CompleteName,
		ParentID:        c.ParentID,
	}
}

// CategoryTaxClassifiedEvent is published when a tax classification is assigned
type CategoryTaxClassifiedEvent struct {
	shared.BaseDomainEvent
	CategoryID          uuid.UUID `json:"category_id"`
	TaxClassificationID uuid.UUID `json:"tax_classification_id"`
}

// NewCategoryTaxClassifiedEvent creates a new CategoryTaxClassifiedEvent
func NewCategoryTaxClassifiedEvent(c *ProductCategory, classificationID uuid.UUID) *CategoryTaxClassifiedEvent {
	return &CategoryTaxClassifiedEvent{
		BaseDomainEvent:     shared.NewBaseDomainEvent(EventTypeCategoryTaxClassified, AggregateTypeProductCategory, c.ID, c.TenantID),
		CategoryID:          c.ID,
		TaxClassificationID: classificationID,
	}
}

// ProductCreatedEvent is published when a product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	DefaultCode string    `json:"default_code"`
	Name        string    `json:"name"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, p.ID, p.TenantID),
		ProductID:       p.ID,
		DefaultCode:     p.DefaultCode,
		Name:            p.Name,
	}
}

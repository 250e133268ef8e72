package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductType decides whether a product is tracked in stock
type ProductType string

const (
	ProductTypeStorable   ProductType = "product"
	ProductTypeConsumable ProductType = "consu"
	ProductTypeService    ProductType = "service"
)

// IsValid checks if the type is known
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypeStorable, ProductTypeConsumable, ProductTypeService:
		return true
	}
	return false
}

// Product is a sellable and purchasable product variant
type Product struct {
	shared.TenantAggregateRoot
	DefaultCode         string                  `gorm:"column:default_code;type:varchar(64);index"`
	Name                string                  `gorm:"type:varchar(200);not null"`
	Type                ProductType             `gorm:"type:varchar(20);not null;default:'product'"`
	CategoryID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	UomID               uuid.UUID               `gorm:"type:uuid;not null"`
	UomPOID             uuid.UUID               `gorm:"column:uom_po_id;type:uuid;not null"`
	ListPrice           decimal.Decimal         `gorm:"type:decimal(18,4);not null;default:0"`
	DescriptionPurchase string                  `gorm:"type:text"`
	Active              bool                    `gorm:"not null;default:true"`
	Uom                 *UnitOfMeasure          `gorm:"foreignKey:UomID"`
	UomPO               *UnitOfMeasure          `gorm:"foreignKey:UomPOID"`
	Sellers             []SupplierInfo          `gorm:"foreignKey:ProductID;references:ID"`
	CustomerTaxes       []Tax                   `gorm:"many2many:product_customer_taxes"`
	SupplierTaxes       []Tax                   `gorm:"many2many:product_supplier_taxes"`
	AttributeValues     []ProductAttributeValue `gorm:"many2many:product_variant_attribute_values"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a storable product; the purchase uom defaults to the sales uom
func NewProduct(tenantID uuid.UUID, defaultCode, name string, categoryID uuid.UUID, uom *UnitOfMeasure) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name is required")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Product category is required")
	}
	if uom == nil {
		return nil, shared.NewDomainError("INVALID_UOM", "Product unit of measure is required")
	}

	p := &Product{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		DefaultCode:         strings.TrimSpace(defaultCode),
		Name:                name,
		Type:                ProductTypeStorable,
		CategoryID:          categoryID,
		UomID:               uom.ID,
		UomPOID:             uom.ID,
		ListPrice:           decimal.Zero,
		Active:              true,
		Uom:                 uom,
		UomPO:               uom,
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// SetPurchaseUom sets the unit vendors sell in; it must share the sales uom category
func (p *Product) SetPurchaseUom(uom *UnitOfMeasure) error {
	if uom == nil {
		return shared.NewDomainError("INVALID_UOM", "Purchase unit of measure is required")
	}
	if p.Uom != nil && p.Uom.Category != uom.Category {
		return shared.NewDomainError("UOM_CATEGORY_MISMATCH", "The default unit of measure and the purchase unit of measure must be in the same category")
	}
	p.UomPOID = uom.ID
	p.UomPO = uom
	p.Touch()
	return nil
}

// AddSeller registers a vendor price
func (p *Product) AddSeller(partnerID uuid.UUID, partnerName string, price, minQty decimal.Decimal, delay int) (*SupplierInfo, error) {
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Vendor is required")
	}
	if price.IsNegative() || minQty.IsNegative() || delay < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Vendor price, minimal quantity and delay cannot be negative")
	}
	s := SupplierInfo{
		ID:          uuid.New(),
		TenantID:    p.TenantID,
		ProductID:   p.ID,
		PartnerID:   partnerID,
		PartnerName: partnerName,
		Sequence:    len(p.Sellers) + 1,
		Price:       price,
		Currency:    "CNY",
		MinQty:      minQty,
		Delay:       delay,
	}
	p.Sellers = append(p.Sellers, s)
	p.Touch()
	return &p.Sellers[len(p.Sellers)-1], nil
}

// IsStorable reports whether stock levels are tracked
func (p *Product) IsStorable() bool {
	return p.Type == ProductTypeStorable
}

// VariantName joins every attribute value of the variant, including values
// of attributes that only have a single value on the template.
func (p *Product) VariantName() string {
	if len(p.AttributeValues) == 0 {
		return ""
	}
	values := make([]ProductAttributeValue, len(p.AttributeValues))
	copy(values, p.AttributeValues)
	sort.SliceStable(values, func(i, j int) bool { return values[i].Sequence < values[j].Sequence })
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}

// DisplayName renders "[code] Name (variant)"
func (p *Product) DisplayName() string {
	name := p.Name
	if variant := p.VariantName(); variant != "" {
		name = fmt.Sprintf("%s (%s)", name, variant)
	}
	if p.DefaultCode != "" {
		name = fmt.Sprintf("[%s] %s", p.DefaultCode, name)
	}
	return name
}

// PurchaseLineName is the description put on purchase order lines
func (p *Product) PurchaseLineName() string {
	if p.DescriptionPurchase == "" {
		return p.DisplayName()
	}
	return p.DisplayName() + "\n" + p.DescriptionPurchase
}

package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// ProductAttribute is a variant axis such as color or size.
// Comment disambiguates attributes sharing a name.
type ProductAttribute struct {
	shared.TenantAggregateRoot
	Name    string                  `gorm:"type:varchar(100);not null"`
	Comment string                  `gorm:"type:varchar(200)"`
	Values  []ProductAttributeValue `gorm:"foreignKey:AttributeID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductAttribute) TableName() string {
	return "product_attributes"
}

// ProductAttributeValue is one value of an attribute
type ProductAttributeValue struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	AttributeID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Sequence    int       `gorm:"not null;default:10"`
}

// TableName returns the table name for GORM
func (ProductAttributeValue) TableName() string {
	return "product_attribute_values"
}

// NewProductAttribute creates an attribute
func NewProductAttribute(tenantID uuid.UUID, name, comment string) (*ProductAttribute, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute name is required")
	}
	return &ProductAttribute{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Comment:             strings.TrimSpace(comment),
		Values:              make([]ProductAttributeValue, 0),
	}, nil
}

// DisplayName returns "name [comment]", or the bare name without a comment
func (a *ProductAttribute) DisplayName() string {
	if a.Comment == "" {
		return a.Name
	}
	return fmt.Sprintf("%s [%s]", a.Name, a.Comment)
}

// AddValue appends a value, rejecting duplicates
func (a *ProductAttribute) AddValue(name string) (*ProductAttributeValue, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Attribute value name is required")
	}
	for _, v := range a.Values {
		if strings.EqualFold(v.Name, name) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Value %s already exists on %s", name, a.DisplayName()))
		}
	}
	v := ProductAttributeValue{
		ID:          uuid.New(),
		AttributeID: a.ID,
		Name:        name,
		Sequence:    (len(a.Values) + 1) * 10,
	}
	a.Values = append(a.Values, v)
	a.Touch()
	return &a.Values[len(a.Values)-1], nil
}

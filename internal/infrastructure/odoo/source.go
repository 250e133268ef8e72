package odoo

import (
	"context"

	"github.com/qm/backend/internal/domain/integration"
)

var (
	taxClassificationFields = []string{"name", "code", "code18", "write_date"}
	categoryFields          = []string{"name", "code", "parent_id", "tax_classification_id", "write_date"}
	partnerFields           = []string{
		"name", "is_company", "parent_id", "type", "ref", "vat", "phone", "email", "street", "city",
		"account_name", "account_address", "account_phone", "customer_rank", "supplier_rank", "active", "write_date",
	}
)

// Source adapts a Client to integration.LegacySource
type Source struct {
	client *Client
}

// NewSource creates a legacy source backed by client
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

var _ integration.LegacySource = (*Source)(nil)

func sinceDomain(q integration.LegacyQuery) []interface{} {
	if q.Since == nil {
		return []interface{}{}
	}
	return []interface{}{
		[]interface{}{"write_date", ">", q.Since.UTC().Format(DateTimeFormat)},
	}
}

// TaxClassifications reads tax.classification records
func (s *Source) TaxClassifications(ctx context.Context, q integration.LegacyQuery) ([]integration.LegacyTaxClassification, error) {
	records, err := s.client.SearchRead(ctx, integration.LegacyModelTaxClassification.String(), sinceDomain(q), taxClassificationFields,
		SearchOptions{Limit: q.Limit, Offset: q.Offset, Order: "id"})
	if err != nil {
		return nil, err
	}
	out := make([]integration.LegacyTaxClassification, len(records))
	for i, r := range records {
		out[i] = integration.LegacyTaxClassification{
			ID:        r.ID(),
			Name:      r.String("name"),
			Code:      r.String("code"),
			Code18:    r.String("code18"),
			WriteDate: r.Time("write_date"),
		}
	}
	return out, nil
}

// Categories reads product.category records ordered by parent path, so a
// parent always precedes its children
func (s *Source) Categories(ctx context.Context, q integration.LegacyQuery) ([]integration.LegacyCategory, error) {
	records, err := s.client.SearchRead(ctx, integration.LegacyModelCategory.String(), sinceDomain(q), categoryFields,
		SearchOptions{Limit: q.Limit, Offset: q.Offset, Order: "parent_path, id"})
	if err != nil {
		return nil, err
	}
	out := make([]integration.LegacyCategory, len(records))
	for i, r := range records {
		parentID, _ := r.Many2One("parent_id")
		taxID, _ := r.Many2One("tax_classification_id")
		out[i] = integration.LegacyCategory{
			ID:                  r.ID(),
			Name:                r.String("name"),
			Code:                r.String("code"),
			ParentID:            parentID,
			TaxClassificationID: taxID,
			WriteDate:           r.Time("write_date"),
		}
	}
	return out, nil
}

// Partners reads res.partner records including archived ones
func (s *Source) Partners(ctx context.Context, q integration.LegacyQuery) ([]integration.LegacyPartner, error) {
	records, err := s.client.SearchRead(ctx, integration.LegacyModelPartner.String(), sinceDomain(q), partnerFields,
		SearchOptions{Limit: q.Limit, Offset: q.Offset, Order: "id", WithArchived: true})
	if err != nil {
		return nil, err
	}
	out := make([]integration.LegacyPartner, len(records))
	for i, r := range records {
		parentID, _ := r.Many2One("parent_id")
		out[i] = integration.LegacyPartner{
			ID:             r.ID(),
			Name:           r.String("name"),
			IsCompany:      r.Bool("is_company"),
			ParentID:       parentID,
			Type:           r.String("type"),
			Ref:            r.String("ref"),
			Vat:            r.String("vat"),
			Phone:          r.String("phone"),
			Email:          r.String("email"),
			Street:         r.String("street"),
			City:           r.String("city"),
			AccountName:    r.String("account_name"),
			AccountAddress: r.String("account_address"),
			AccountPhone:   r.String("account_phone"),
			IsCustomer:     r.Int("customer_rank") > 0,
			IsSupplier:     r.Int("supplier_rank") > 0,
			Active:         r.Bool("active"),
			WriteDate:      r.Time("write_date"),
		}
	}
	return out, nil
}

package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/catalog"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// Export flattens the product lines of the selected invoices into the rows
// filed with the tax authority. Lines without a product are skipped.
func (s *MoveService) Export(ctx context.Context, tenantID uuid.UUID, req ExportMovesRequest) ([]finance.InvoiceExportRow, error) {
	moves, err := s.moveRepo.FindByIDs(ctx, tenantID, req.MoveIDs)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]uuid.UUID, 0, len(moves))
	productIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, m := range moves {
		if m.PartnerID != nil && !seen[*m.PartnerID] {
			seen[*m.PartnerID] = true
			partnerIDs = append(partnerIDs, *m.PartnerID)
		}
		for _, l := range m.ProductLines() {
			if l.ProductID != nil && !seen[*l.ProductID] {
				seen[*l.ProductID] = true
				productIDs = append(productIDs, *l.ProductID)
			}
		}
	}

	partners, err := s.partnerRepo.FindByIDs(ctx, tenantID, partnerIDs)
	if err != nil {
		return nil, err
	}
	headers := make(map[uuid.UUID]partner.InvoiceHeader, len(partners))
	for i := range partners {
		headers[partners[i].ID] = partners[i].InvoiceHeader()
	}

	products, err := s.productRepo.FindByIDs(ctx, tenantID, productIDs)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byProduct[products[i].ID] = &products[i]
	}
	classes, err := s.classificationsOf(ctx, tenantID, products)
	if err != nil {
		return nil, err
	}

	rows := make([]finance.InvoiceExportRow, 0)
	for _, m := range moves {
		var header partner.InvoiceHeader
		if m.PartnerID != nil {
			header = headers[*m.PartnerID]
		}
		taxInvoices := make([]string, len(m.TaxInvoices))
		for i, ti := range m.TaxInvoices {
			taxInvoices[i] = ti.Name
		}
		date := ""
		if m.InvoiceDate != nil {
			date = m.InvoiceDate.Format("2006-01-02")
		}
		for _, l := range m.ProductLines() {
			if l.ProductID == nil {
				continue
			}
			product := byProduct[*l.ProductID]
			if product == nil {
				continue
			}
			price := l.PriceUnitTaxIncluded()
			row := finance.InvoiceExportRow{
				InvoiceName:     m.Name,
				InvoiceDate:     date,
				OrderNumber:     m.InvoiceOrigin,
				PartnerName:     header.Name,
				PartnerVat:      header.TaxNumber,
				AddressPhone:    header.AddressPhone,
				BankAccount:     header.BankAccount,
				ProductCode:     product.DefaultCode,
				ProductName:     product.Name,
				Variant:         product.VariantName(),
				Uom:             l.UomName,
				Quantity:        l.Quantity,
				PriceUnit:       price,
				Amount:          price.Mul(l.Quantity).Round(2),
				TaxRate:         taxRate(l.Taxes),
				TaxInvoiceNames: taxInvoices,
			}
			if tc := classes[product.CategoryID]; tc != nil {
				row.TaxCode = tc.Code
				row.TaxCode18 = tc.Code18
				row.TaxClassName = tc.Name
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// classificationsOf resolves the tax classification of every product
// category, inheriting from the nearest classified ancestor
func (s *MoveService) classificationsOf(ctx context.Context, tenantID uuid.UUID, products []catalog.Product) (map[uuid.UUID]*catalog.TaxClassification, error) {
	categoryIDs := make([]uuid.UUID, 0, len(products))
	seen := make(map[uuid.UUID]bool)
	for _, p := range products {
		if !seen[p.CategoryID] {
			seen[p.CategoryID] = true
			categoryIDs = append(categoryIDs, p.CategoryID)
		}
	}
	leaves, err := s.categoryRepo.FindByIDs(ctx, tenantID, categoryIDs)
	if err != nil {
		return nil, err
	}

	all := make(map[uuid.UUID]catalog.ProductCategory, len(leaves))
	var ancestorIDs []uuid.UUID
	for _, c := range leaves {
		all[c.ID] = c
		for _, id := range c.AncestorIDs() {
			if !seen[id] {
				seen[id] = true
				ancestorIDs = append(ancestorIDs, id)
			}
		}
	}
	if len(ancestorIDs) > 0 {
		ancestors, err := s.categoryRepo.FindByIDs(ctx, tenantID, ancestorIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range ancestors {
			all[c.ID] = c
		}
	}

	resolved := make(map[uuid.UUID]uuid.UUID, len(leaves))
	classIDs := make([]uuid.UUID, 0, len(leaves))
	for _, leaf := range leaves {
		chain := []catalog.ProductCategory{leaf}
		ids := leaf.AncestorIDs()
		for i := len(ids) - 1; i >= 0; i-- {
			if c, ok := all[ids[i]]; ok {
				chain = append(chain, c)
			}
		}
		if id := catalog.ResolveTaxClassification(chain); id != nil {
			resolved[leaf.ID] = *id
			classIDs = append(classIDs, *id)
		}
	}

	out := make(map[uuid.UUID]*catalog.TaxClassification, len(resolved))
	if len(classIDs) == 0 {
		return out, nil
	}
	classes, err := s.taxClassRepo.FindByIDs(ctx, tenantID, classIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.TaxClassification, len(classes))
	for i := range classes {
		byID[classes[i].ID] = &classes[i]
	}
	for categoryID, classID := range resolved {
		out[categoryID] = byID[classID]
	}
	return out, nil
}

func taxRate(taxes []catalog.Tax) decimal.Decimal {
	rate := decimal.Zero
	for _, t := range taxes {
		rate = rate.Add(t.Amount)
	}
	return rate
}

package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

func withCommon(fields ...string) map[string]bool {
	out := map[string]bool{
		"id":         true,
		"created_at": true,
		"updated_at": true,
	}
	for _, f := range fields {
		out[f] = true
	}
	return out
}

// Allowed sort fields per listing
var (
	CategorySortFields          = withCommon("name", "code", "full_code", "complete_name", "level", "path")
	TaxClassificationSortFields = withCommon("name", "code", "code18")
	ProductSortFields           = withCommon("name", "default_code", "type", "category_id", "list_price")
	PartnerSortFields           = withCommon("name", "ref", "company_type", "vat", "city")
	SalesOrderSortFields        = withCommon("order_number", "date_order", "state", "invoice_state", "amount_total", "customer_name")
	PurchaseOrderSortFields     = withCommon("order_number", "date_order", "state", "payment_state", "amount_total", "vendor_name")
	PurchaseRequestSortFields   = withCommon("name", "state", "qty_to_purchase", "sale_order_number")
	RMASortFields               = withCommon("name", "state", "rma_type", "return_amount")
	PlatformOrderSortFields     = withCommon("name", "brand", "date_order", "order_reference", "amount_total", "state")
	MoveSortFields              = withCommon("name", "invoice_date", "state", "move_type", "amount_total", "amount_residual", "partner_name")
	TaxInvoiceSortFields        = withCommon("name", "code", "invoice_date", "sent_date", "amount_total")
	PaymentSortFields           = withCommon("name", "payment_date", "amount", "state", "partner_name")
	PickingSortFields           = withCommon("name", "scheduled_date", "date_done", "state", "origin")
)

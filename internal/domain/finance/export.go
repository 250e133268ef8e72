package finance

import "github.com/shopspring/decimal"

// InvoiceExportRow is one product line of an invoice prepared for tax filing
type InvoiceExportRow struct {
	InvoiceName     string          `json:"invoice_name"`
	InvoiceDate     string          `json:"invoice_date"`
	OrderNumber     string          `json:"order_number"`
	PartnerName     string          `json:"partner_name"`
	PartnerVat      string          `json:"partner_vat"`
	AddressPhone    string          `json:"address_phone"`
	BankAccount     string          `json:"bank_account"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	Variant         string          `json:"variant"`
	Uom             string          `json:"uom"`
	Quantity        decimal.Decimal `json:"quantity"`
	PriceUnit       decimal.Decimal `json:"price_unit"`
	Amount          decimal.Decimal `json:"amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	TaxCode         string          `json:"tax_code"`
	TaxCode18       string          `json:"tax_code18"`
	TaxClassName    string          `json:"tax_class_name"`
	TaxInvoiceNames []string        `json:"tax_invoice_names,omitempty"`
}

package printing

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names
const (
	TemplateInvoice = "invoice.html"
)

// Party is one side of a printed document
type Party struct {
	Name         string
	TaxNumber    string
	AddressPhone string
	BankAccount  string
}

// InvoiceLine is a printed invoice row
type InvoiceLine struct {
	Name      string
	Uom       string
	Quantity  decimal.Decimal
	PriceUnit decimal.Decimal
	Taxes     string
	Total     decimal.Decimal
}

// InvoiceDocument is everything the invoice template shows
type InvoiceDocument struct {
	Title        string
	Number       string
	Draft        bool
	InvoiceDate  *time.Time
	DueDate      *time.Time
	Origin       string
	Ref          string
	Currency     string
	Seller       Party
	Buyer        Party
	Lines        []InvoiceLine
	Untaxed      decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Residual     decimal.Decimal
	PaymentState string
	PrintedAt    time.Time
}

// Templates holds the parsed document layouts
type Templates struct {
	set *template.Template
}

// NewTemplates parses the embedded layouts
func NewTemplates() (*Templates, error) {
	set, err := template.New("documents").Funcs(template.FuncMap{
		"money":          formatMoney,
		"moneyRaw":       formatMoneyRaw,
		"moneyToChinese": moneyToChinese,
		"qty":            formatQty,
		"date":           formatDate,
		"datePtr":        formatDatePtr,
		"inc":            func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidDocument, "failed to parse templates", err)
	}
	return &Templates{set: set}, nil
}

// Render executes the named layout
func (t *Templates) Render(name string, data any) (string, error) {
	tmpl := t.set.Lookup(name)
	if tmpl == nil {
		return "", NewRenderError(ErrCodeInvalidDocument, "unknown template: "+name, nil)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

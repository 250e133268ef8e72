package partner

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/shared"
)

// CompanyType distinguishes organisations from individual contacts
type CompanyType string

const (
	CompanyTypeCompany CompanyType = "company"
	CompanyTypePerson  CompanyType = "person"
)

// IsValid checks if the company type is known
func (t CompanyType) IsValid() bool {
	return t == CompanyTypeCompany || t == CompanyTypePerson
}

// AddressType tells what a child contact is used for
type AddressType string

const (
	AddressTypeContact  AddressType = "contact"
	AddressTypeInvoice  AddressType = "invoice"
	AddressTypeDelivery AddressType = "delivery"
)

// ErrPartnerNotCompany is returned when a person is used where a company is required
var ErrPartnerNotCompany = shared.NewDomainError("PARTNER_NOT_COMPANY", "The partner must be a company")

// Partner is a customer, vendor or one of their contacts/addresses
type Partner struct {
	shared.TenantAggregateRoot
	Name             string        `gorm:"type:varchar(200);not null"`
	CompanyType      CompanyType   `gorm:"type:varchar(20);not null;default:'company'"`
	ParentID         *uuid.UUID    `gorm:"type:uuid;index"`
	AddressType      AddressType   `gorm:"column:type;type:varchar(20);not null;default:'contact'"`
	Ref              string        `gorm:"type:varchar(50);index"`
	Vat              string        `gorm:"type:varchar(50)"`
	Phone            string        `gorm:"type:varchar(50)"`
	Email            string        `gorm:"type:varchar(200)"`
	Street           string        `gorm:"type:varchar(300)"`
	City             string        `gorm:"type:varchar(100)"`
	Country          string        `gorm:"type:varchar(100)"`
	AccountName      string        `gorm:"type:varchar(200)"`
	AccountAddress   string        `gorm:"type:varchar(300)"`
	AccountPhone     string        `gorm:"type:varchar(50)"`
	PurchaseCurrency string        `gorm:"type:varchar(3)"`
	IsCustomer       bool          `gorm:"not null;default:false"`
	IsSupplier       bool          `gorm:"not null;default:false"`
	Active           bool          `gorm:"not null;default:true"`
	BankAccounts     []BankAccount `gorm:"foreignKey:PartnerID;references:ID"`
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewCompanyPartner creates an organisation partner
func NewCompanyPartner(tenantID uuid.UUID, name string) (*Partner, error) {
	return newPartner(tenantID, name, CompanyTypeCompany)
}

// NewPersonPartner creates an individual partner
func NewPersonPartner(tenantID uuid.UUID, name string) (*Partner, error) {
	return newPartner(tenantID, name, CompanyTypePerson)
}

// NewChildAddress creates a contact or address under parent
func NewChildAddress(parent *Partner, name string, addressType AddressType) (*Partner, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent partner is required")
	}
	p, err := newPartner(parent.TenantID, name, CompanyTypePerson)
	if err != nil {
		return nil, err
	}
	parentID := parent.ID
	p.ParentID = &parentID
	p.AddressType = addressType
	p.IsCustomer = parent.IsCustomer
	p.IsSupplier = parent.IsSupplier
	return p, nil
}

func newPartner(tenantID uuid.UUID, name string, companyType CompanyType) (*Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Partner name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Partner name cannot exceed 200 characters")
	}
	p := &Partner{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		CompanyType:         companyType,
		AddressType:         AddressTypeContact,
		Active:              true,
		BankAccounts:        make([]BankAccount, 0),
	}
	p.AddDomainEvent(NewPartnerCreatedEvent(p))
	return p, nil
}

// IsCompany reports whether the partner is an organisation
func (p *Partner) IsCompany() bool {
	return p.CompanyType == CompanyTypeCompany
}

// RequireCompany returns ErrPartnerNotCompany for individuals
func (p *Partner) RequireCompany() error {
	if !p.IsCompany() {
		return shared.NewDomainError(ErrPartnerNotCompany.Code, "The partner "+p.Name+" must be a company")
	}
	return nil
}

// SetInvoiceFields sets the header printed on tax invoices
func (p *Partner) SetInvoiceFields(accountName, accountAddress, accountPhone string) {
	p.AccountName = strings.TrimSpace(accountName)
	p.AccountAddress = strings.TrimSpace(accountAddress)
	p.AccountPhone = strings.TrimSpace(accountPhone)
	p.Touch()
}

// AddBankAccount attaches a bank account
func (p *Partner) AddBankAccount(accNumber, bankName, taxNumber, companyName string) (*BankAccount, error) {
	accNumber = strings.TrimSpace(accNumber)
	if accNumber == "" {
		return nil, shared.NewDomainError("INVALID_BANK_ACCOUNT", "Account number is required")
	}
	for _, b := range p.BankAccounts {
		if b.AccNumber == accNumber {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Account number must be unique")
		}
	}
	b := BankAccount{
		ID:          uuid.New(),
		TenantID:    p.TenantID,
		PartnerID:   p.ID,
		AccNumber:   accNumber,
		BankName:    strings.TrimSpace(bankName),
		TaxNumber:   strings.TrimSpace(taxNumber),
		CompanyName: strings.TrimSpace(companyName),
	}
	p.BankAccounts = append(p.BankAccounts, b)
	p.Touch()
	return &p.BankAccounts[len(p.BankAccounts)-1], nil
}

// InvoiceHeader is the buyer/seller block on a tax invoice
type InvoiceHeader struct {
	Name         string `json:"name"`
	TaxNumber    string `json:"tax_number"`
	AddressPhone string `json:"address_phone"`
	BankAccount  string `json:"bank_account"`
}

// InvoiceHeader builds the header, preferring the account_* fields and the
// first bank account's tax number and company name
func (p *Partner) InvoiceHeader() InvoiceHeader {
	h := InvoiceHeader{
		Name:      firstNonEmpty(p.AccountName, p.Name),
		TaxNumber: p.Vat,
	}
	address := firstNonEmpty(p.AccountAddress, p.Street)
	phone := firstNonEmpty(p.AccountPhone, p.Phone)
	h.AddressPhone = strings.TrimSpace(address + " " + phone)

	if len(p.BankAccounts) > 0 {
		b := p.BankAccounts[0]
		if b.TaxNumber != "" {
			h.TaxNumber = b.TaxNumber
		}
		if b.CompanyName != "" && p.AccountName == "" {
			h.Name = b.CompanyName
		}
		h.BankAccount = strings.TrimSpace(b.BankName + " " + b.AccNumber)
	}
	return h
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// BankAccount is a partner's bank account
type BankAccount struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	PartnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AccNumber   string    `gorm:"type:varchar(64);not null"`
	BankName    string    `gorm:"type:varchar(200)"`
	TaxNumber   string    `gorm:"type:varchar(50)"`
	CompanyName string    `gorm:"type:varchar(200)"`
}

// TableName returns the table name for GORM
func (BankAccount) TableName() string {
	return "partner_bank_accounts"
}

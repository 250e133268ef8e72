package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/partner"
)

// CreatePartnerRequest creates a company, a person or a child address
type CreatePartnerRequest struct {
	Name             string     `json:"name" binding:"required,max=200"`
	CompanyType      string     `json:"company_type" binding:"omitempty,oneof=company person"`
	ParentID         *uuid.UUID `json:"parent_id"`
	AddressType      string     `json:"address_type" binding:"omitempty,oneof=contact invoice delivery"`
	Ref              string     `json:"ref" binding:"max=50"`
	Vat              string     `json:"vat" binding:"max=50"`
	Phone            string     `json:"phone" binding:"max=50"`
	Email            string     `json:"email" binding:"omitempty,email"`
	Street           string     `json:"street" binding:"max=300"`
	City             string     `json:"city" binding:"max=100"`
	Country          string     `json:"country" binding:"max=100"`
	PurchaseCurrency string     `json:"purchase_currency" binding:"omitempty,len=3"`
	IsCustomer       bool       `json:"is_customer"`
	IsSupplier       bool       `json:"is_supplier"`
}

// SetInvoiceFieldsRequest sets the tax invoice header of a partner
type SetInvoiceFieldsRequest struct {
	AccountName    string `json:"account_name" binding:"max=200"`
	AccountAddress string `json:"account_address" binding:"max=300"`
	AccountPhone   string `json:"account_phone" binding:"max=50"`
}

// AddBankAccountRequest attaches a bank account
type AddBankAccountRequest struct {
	AccNumber   string `json:"acc_number" binding:"required,max=64"`
	BankName    string `json:"bank_name" binding:"max=200"`
	TaxNumber   string `json:"tax_number" binding:"max=50"`
	CompanyName string `json:"company_name" binding:"max=200"`
}

// BankAccountResponse is a partner bank account
type BankAccountResponse struct {
	ID          uuid.UUID `json:"id"`
	AccNumber   string    `json:"acc_number"`
	BankName    string    `json:"bank_name"`
	TaxNumber   string    `json:"tax_number"`
	CompanyName string    `json:"company_name"`
}

// PartnerResponse is a partner with its bank accounts and invoice header
type PartnerResponse struct {
	ID               uuid.UUID             `json:"id"`
	Name             string                `json:"name"`
	CompanyType      string                `json:"company_type"`
	ParentID         *uuid.UUID            `json:"parent_id,omitempty"`
	AddressType      string                `json:"address_type"`
	Ref              string                `json:"ref,omitempty"`
	Vat              string                `json:"vat,omitempty"`
	Phone            string                `json:"phone,omitempty"`
	Email            string                `json:"email,omitempty"`
	Street           string                `json:"street,omitempty"`
	City             string                `json:"city,omitempty"`
	Country          string                `json:"country,omitempty"`
	AccountName      string                `json:"account_name,omitempty"`
	AccountAddress   string                `json:"account_address,omitempty"`
	AccountPhone     string                `json:"account_phone,omitempty"`
	PurchaseCurrency string                `json:"purchase_currency,omitempty"`
	IsCustomer       bool                  `json:"is_customer"`
	IsSupplier       bool                  `json:"is_supplier"`
	BankAccounts     []BankAccountResponse `json:"bank_accounts"`
	InvoiceHeader    partner.InvoiceHeader `json:"invoice_header"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToPartnerResponse converts a partner
func ToPartnerResponse(p *partner.Partner) PartnerResponse {
	banks := make([]BankAccountResponse, len(p.BankAccounts))
	for i, b := range p.BankAccounts {
		banks[i] = BankAccountResponse{
			ID:          b.ID,
			AccNumber:   b.AccNumber,
			BankName:    b.BankName,
			TaxNumber:   b.TaxNumber,
			CompanyName: b.CompanyName,
		}
	}
	return PartnerResponse{
		ID:               p.ID,
		Name:             p.Name,
		CompanyType:      string(p.CompanyType),
		ParentID:         p.ParentID,
		AddressType:      string(p.AddressType),
		Ref:              p.Ref,
		Vat:              p.Vat,
		Phone:            p.Phone,
		Email:            p.Email,
		Street:           p.Street,
		City:             p.City,
		Country:          p.Country,
		AccountName:      p.AccountName,
		AccountAddress:   p.AccountAddress,
		AccountPhone:     p.AccountPhone,
		PurchaseCurrency: p.PurchaseCurrency,
		IsCustomer:       p.IsCustomer,
		IsSupplier:       p.IsSupplier,
		BankAccounts:     banks,
		InvoiceHeader:    p.InvoiceHeader(),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

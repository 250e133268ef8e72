package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qm/backend/internal/domain/finance"
	"github.com/qm/backend/internal/domain/partner"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/printing"
	"go.uber.org/zap"
)

var (
	ErrPrintingUnavailable = shared.NewDomainError("PRINTING_UNAVAILABLE", "PDF printing is not configured")
	ErrArchiveUnavailable  = shared.NewDomainError("ARCHIVE_UNAVAILABLE", "Document archive is not configured")
	ErrArchiveNotFound     = shared.NewDomainError("ARCHIVE_NOT_FOUND", "No archived PDF for this move")
	ErrMoveNotPrintable    = shared.NewDomainError("MOVE_NOT_PRINTABLE", "Only invoices and refunds can be printed")
)

const pdfContentType = "application/pdf"

// DocumentArchive keeps produced PDFs
type DocumentArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error)
}

// PrintedDocument is a rendered PDF
type PrintedDocument struct {
	FileName string
	PDF      []byte
	Archived bool
}

// ArchivedDocument points at a stored PDF
type ArchivedDocument struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PrintService renders invoices for printing
type PrintService struct {
	moveRepo    finance.AccountMoveRepository
	partnerRepo partner.PartnerRepository
	companyRepo partner.CompanyRepository
	templates   *printing.Templates
	renderer    printing.PDFRenderer
	archive     DocumentArchive
	paperSize   printing.PaperSize
	logger      *zap.Logger
	now         func() time.Time
}

// PrintOption configures a PrintService
type PrintOption func(*PrintService)

// WithRenderer enables PDF output
func WithRenderer(r printing.PDFRenderer, paper printing.PaperSize) PrintOption {
	return func(s *PrintService) {
		s.renderer = r
		s.paperSize = paper
	}
}

// WithArchive stores the PDF of every posted move printed
func WithArchive(a DocumentArchive) PrintOption {
	return func(s *PrintService) {
		s.archive = a
	}
}

// NewPrintService creates a new PrintService. Without WithRenderer only HTML
// is available.
func NewPrintService(
	moveRepo finance.AccountMoveRepository,
	partnerRepo partner.PartnerRepository,
	companyRepo partner.CompanyRepository,
	templates *printing.Templates,
	logger *zap.Logger,
	opts ...PrintOption,
) *PrintService {
	s := &PrintService{
		moveRepo:    moveRepo,
		partnerRepo: partnerRepo,
		companyRepo: companyRepo,
		templates:   templates,
		paperSize:   printing.PaperSizeA4,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HTML renders the move as a standalone page
func (s *PrintService) HTML(ctx context.Context, tenantID, id uuid.UUID) (string, error) {
	move, doc, err := s.document(ctx, tenantID, id)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Printing move as HTML", zap.String("move", move.Name))
	return s.templates.Render(printing.TemplateInvoice, doc)
}

// PDF renders the move to PDF. Posted moves are archived when an archive is
// configured; an archive failure is logged and the PDF still returned.
func (s *PrintService) PDF(ctx context.Context, tenantID, id uuid.UUID) (*PrintedDocument, error) {
	if s.renderer == nil {
		return nil, ErrPrintingUnavailable
	}
	move, doc, err := s.document(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	html, err := s.templates.Render(printing.TemplateInvoice, doc)
	if err != nil {
		return nil, err
	}
	result, err := s.renderer.Render(ctx, &printing.RenderRequest{
		HTML:        html,
		Title:       doc.Title + " " + doc.Number,
		PaperSize:   s.paperSize,
		Orientation: printing.OrientationPortrait,
		Margins:     printing.DefaultMargins(),
		FooterHTML:  `<div style="font-size:8px;width:100%;text-align:center"><span class="pageNumber"></span>/<span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", move.Name, err)
	}

	out := &PrintedDocument{FileName: fileName(move), PDF: result.PDF}
	if s.archive != nil && move.State.IsPostedLike() {
		key := archiveKey(move)
		if err := s.archive.Put(ctx, key, result.PDF, pdfContentType); err != nil {
			s.logger.Warn("Failed to archive printed move",
				zap.String("move_id", move.ID.String()),
				zap.String("key", key),
				zap.Error(err))
		} else {
			out.Archived = true
		}
	}
	s.logger.Info("Move printed",
		zap.String("move", move.Name),
		zap.Int("bytes", len(result.PDF)),
		zap.Duration("duration", result.Duration),
		zap.Bool("archived", out.Archived))
	return out, nil
}

// ArchivedURL returns a download link for the archived PDF
func (s *PrintService) ArchivedURL(ctx context.Context, tenantID, id uuid.UUID) (*ArchivedDocument, error) {
	if s.archive == nil {
		return nil, ErrArchiveUnavailable
	}
	move, err := s.moveRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	key := archiveKey(move)
	ok, err := s.archive.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrArchiveNotFound
	}
	u, expiresAt, err := s.archive.DownloadURL(ctx, key, 0)
	if err != nil {
		return nil, err
	}
	return &ArchivedDocument{Key: key, URL: u, ExpiresAt: expiresAt}, nil
}

func (s *PrintService) document(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountMove, printing.InvoiceDocument, error) {
	move, err := s.moveRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, printing.InvoiceDocument{}, err
	}
	if !move.MoveType.IsInvoice() {
		return nil, printing.InvoiceDocument{}, ErrMoveNotPrintable
	}

	company, err := s.companyRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, printing.InvoiceDocument{}, err
	}
	own := printing.Party{Name: company.Name}
	if company.PartnerID != nil {
		if p, err := s.party(ctx, tenantID, *company.PartnerID); err == nil {
			own = p
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, printing.InvoiceDocument{}, err
		}
	}
	other := printing.Party{Name: move.PartnerName}
	if move.PartnerID != nil {
		if p, err := s.party(ctx, tenantID, *move.PartnerID); err == nil {
			other = p
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, printing.InvoiceDocument{}, err
		}
	}

	doc := printing.InvoiceDocument{
		Title:        documentTitle(move.MoveType),
		Number:       move.Name,
		Draft:        move.State == finance.MoveStateDraft,
		InvoiceDate:  move.InvoiceDate,
		DueDate:      move.InvoiceDateDue,
		Origin:       move.InvoiceOrigin,
		Ref:          move.Ref,
		Currency:     string(move.Currency),
		Untaxed:      move.AmountUntaxed,
		Tax:          move.AmountTax,
		Total:        move.AmountTotal,
		Residual:     move.AmountResidual,
		PaymentState: string(move.PaymentState),
		PrintedAt:    s.now(),
	}
	if doc.Number == "/" {
		doc.Number = ""
	}
	if move.MoveType.IsSale() {
		doc.Seller, doc.Buyer = own, other
	} else {
		doc.Seller, doc.Buyer = other, own
	}
	for _, l := range move.Lines {
		if l.ExcludeFromInvoiceTab {
			continue
		}
		names := make([]string, 0, len(l.Taxes))
		for _, t := range l.Taxes {
			names = append(names, t.Name)
		}
		doc.Lines = append(doc.Lines, printing.InvoiceLine{
			Name:      l.Name,
			Uom:       l.UomName,
			Quantity:  l.Quantity,
			PriceUnit: l.PriceUnit,
			Taxes:     strings.Join(names, ", "),
			Total:     l.PriceTotal,
		})
	}
	return move, doc, nil
}

func (s *PrintService) party(ctx context.Context, tenantID, id uuid.UUID) (printing.Party, error) {
	p, err := s.partnerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return printing.Party{}, err
	}
	h := p.InvoiceHeader()
	return printing.Party{
		Name:         h.Name,
		TaxNumber:    h.TaxNumber,
		AddressPhone: h.AddressPhone,
		BankAccount:  h.BankAccount,
	}, nil
}

func documentTitle(t finance.MoveType) string {
	switch t {
	case finance.MoveTypeOutInvoice:
		return "销售发票"
	case finance.MoveTypeOutRefund:
		return "销售红字发票"
	case finance.MoveTypeInInvoice:
		return "供应商账单"
	case finance.MoveTypeInRefund:
		return "供应商退款单"
	}
	return "凭证"
}

// archiveKey is <tenant>/moves/<move id>.pdf
func archiveKey(m *finance.AccountMove) string {
	return m.TenantID.String() + "/moves/" + m.ID.String() + ".pdf"
}

// fileName turns INV/2024/00001 into INV-2024-00001.pdf
func fileName(m *finance.AccountMove) string {
	name := m.Name
	if name == "" || name == "/" {
		name = m.MoveType.NamePrefix() + "-draft-" + m.ID.String()[:8]
	}
	return strings.NewReplacer("/", "-", " ", "_").Replace(name) + ".pdf"
}

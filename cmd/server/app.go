package main

import (
	"context"
	"time"

	catalogapp "github.com/qm/backend/internal/application/catalog"
	financeapp "github.com/qm/backend/internal/application/finance"
	integrationapp "github.com/qm/backend/internal/application/integration"
	inventoryapp "github.com/qm/backend/internal/application/inventory"
	partnerapp "github.com/qm/backend/internal/application/partner"
	tradeapp "github.com/qm/backend/internal/application/trade"
	"github.com/qm/backend/internal/domain/shared"
	"github.com/qm/backend/internal/infrastructure/auth"
	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/qm/backend/internal/infrastructure/event"
	"github.com/qm/backend/internal/infrastructure/odoo"
	"github.com/qm/backend/internal/infrastructure/persistence"
	"github.com/qm/backend/internal/infrastructure/printing"
	"github.com/qm/backend/internal/infrastructure/scheduler"
	"github.com/qm/backend/internal/infrastructure/storage"
	"github.com/qm/backend/internal/infrastructure/telemetry"
	"github.com/qm/backend/internal/interfaces/http/handler"
	"github.com/qm/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// repositories holds the GORM repositories sharing one connection pool
type repositories struct {
	sequences    *persistence.GormSequenceGenerator
	companies    *persistence.GormCompanyRepository
	partners     *persistence.GormPartnerRepository
	categories   *persistence.GormCategoryRepository
	taxClasses   *persistence.GormTaxClassificationRepository
	taxes        *persistence.GormTaxRepository
	uoms         *persistence.GormUomRepository
	attributes   *persistence.GormProductAttributeRepository
	products     *persistence.GormProductRepository
	salesOrders  *persistence.GormSalesOrderRepository
	purchases    *persistence.GormPurchaseOrderRepository
	requests     *persistence.GormPurchaseRequestRepository
	rmas         *persistence.GormRMARepository
	platform     *persistence.GormPlatformOrderRepository
	locations    *persistence.GormLocationRepository
	pickingTypes *persistence.GormPickingTypeRepository
	rules        *persistence.GormStockRuleRepository
	pickings     *persistence.GormPickingRepository
	quants       *persistence.GormStockQuantRepository
	moves        *persistence.GormAccountMoveRepository
	taxInvoices  *persistence.GormTaxInvoiceRepository
	payments     *persistence.GormPaymentRepository
	mappings     *persistence.GormExternalMappingRepository
}

func newRepositories(db *gorm.DB) *repositories {
	seq := persistence.NewGormSequenceGenerator(db)
	return &repositories{
		sequences:    seq,
		companies:    persistence.NewGormCompanyRepository(db),
		partners:     persistence.NewGormPartnerRepository(db),
		categories:   persistence.NewGormCategoryRepository(db),
		taxClasses:   persistence.NewGormTaxClassificationRepository(db),
		taxes:        persistence.NewGormTaxRepository(db),
		uoms:         persistence.NewGormUomRepository(db),
		attributes:   persistence.NewGormProductAttributeRepository(db),
		products:     persistence.NewGormProductRepository(db),
		salesOrders:  persistence.NewGormSalesOrderRepository(db),
		purchases:    persistence.NewGormPurchaseOrderRepository(db),
		requests:     persistence.NewGormPurchaseRequestRepository(db),
		rmas:         persistence.NewGormRMARepository(db),
		platform:     persistence.NewGormPlatformOrderRepository(db),
		locations:    persistence.NewGormLocationRepository(db),
		pickingTypes: persistence.NewGormPickingTypeRepository(db),
		rules:        persistence.NewGormStockRuleRepository(db),
		pickings:     persistence.NewGormPickingRepository(db),
		quants:       persistence.NewGormStockQuantRepository(db),
		moves:        persistence.NewGormAccountMoveRepository(db, seq),
		taxInvoices:  persistence.NewGormTaxInvoiceRepository(db),
		payments:     persistence.NewGormPaymentRepository(db, seq),
		mappings:     persistence.NewGormExternalMappingRepository(db),
	}
}

// services holds the application services
type services struct {
	partner        *partnerapp.PartnerService
	category       *catalogapp.CategoryService
	categoryImport *catalogapp.CategoryImportService
	taxClass       *catalogapp.TaxClassificationService
	attribute      *catalogapp.AttributeService
	product        *catalogapp.ProductService
	salesOrder     *tradeapp.SalesOrderService
	purchaseOrder  *tradeapp.PurchaseOrderService
	request        *tradeapp.PurchaseRequestService
	rma            *tradeapp.RMAService
	platformOrder  *tradeapp.PlatformOrderService
	companySetup   *inventoryapp.CompanySetupService
	picking        *inventoryapp.PickingService
	procurement    *inventoryapp.ProcurementService
	move           *financeapp.MoveService
	payment        *financeapp.PaymentService
	taxInvoice     *financeapp.TaxInvoiceService
	print          *financeapp.PrintService
}

func newServices(r *repositories, tx shared.Transactor, log *zap.Logger) *services {
	s := &services{
		partner:        partnerapp.NewPartnerService(r.partners, log),
		category:       catalogapp.NewCategoryService(r.categories, r.taxClasses, log),
		categoryImport: catalogapp.NewCategoryImportService(r.categories, r.taxClasses, log),
		taxClass:       catalogapp.NewTaxClassificationService(r.taxClasses),
		attribute:      catalogapp.NewAttributeService(r.attributes),
		product:        catalogapp.NewProductService(r.products, r.categories, r.uoms, r.taxes, r.partners, log),
		salesOrder:     tradeapp.NewSalesOrderService(r.salesOrders, r.partners, r.products, r.taxes, r.moves, r.sequences, log),
		purchaseOrder:  tradeapp.NewPurchaseOrderService(r.purchases, r.moves, log),
		request: tradeapp.NewPurchaseRequestService(
			r.requests, r.purchases, r.partners, r.companies, r.products, r.uoms, r.pickingTypes, r.sequences, log),
		rma:           tradeapp.NewRMAService(r.rmas, r.salesOrders, r.products, r.sequences, log),
		platformOrder: tradeapp.NewPlatformOrderService(r.platform, log),
		companySetup:  inventoryapp.NewCompanySetupService(r.companies, r.locations, r.pickingTypes, r.rules, r.sequences, log),
		picking:       inventoryapp.NewPickingService(r.pickings, r.pickingTypes, r.locations, r.quants, r.sequences, log),
		procurement: inventoryapp.NewProcurementService(
			r.products, r.uoms, r.companies, r.locations, r.rules, r.quants, r.pickingTypes, r.pickings, r.sequences, log),
		move:       financeapp.NewMoveService(r.moves, r.taxInvoices, r.partners, r.products, r.taxes, r.categories, r.taxClasses, log),
		payment:    financeapp.NewPaymentService(r.payments, r.moves, r.partners, log, financeapp.WithTransactor(tx)),
		taxInvoice: financeapp.NewTaxInvoiceService(r.taxInvoices, r.moves, log),
	}
	s.salesOrder.SetProcurement(s.procurement, s.request)
	s.salesOrder.SetTransactor(tx)
	s.picking.SetTransactor(tx)
	return s
}

// publishers lists every service that emits domain events
func (s *services) publishers() []interface{ SetEventPublisher(shared.EventPublisher) } {
	return []interface{ SetEventPublisher(shared.EventPublisher) }{
		s.partner, s.category, s.product,
		s.salesOrder, s.purchaseOrder, s.request, s.rma,
		s.companySetup, s.picking,
		s.move, s.payment, s.taxInvoice,
	}
}

// wireEvents subscribes the journal and the cross-module handlers, then
// injects the bus into every publishing service. Reactions are wrapped so a
// redelivered event runs each of them once.
func wireEvents(bus *event.InMemoryEventBus, journal *event.Journal, s *services, store shared.IdempotencyStore, cfg config.EventConfig, log *zap.Logger) {
	bus.Subscribe(journal)

	idem := shared.DefaultIdempotencyConfig()
	idem.TTL = cfg.IdempotencyTTL
	reactions := []struct {
		name    string
		handler shared.EventHandler
	}{
		{"invoice_status", tradeapp.NewInvoiceStatusHandler(s.salesOrder, s.purchaseOrder, log)},
		{"request_sync", tradeapp.NewRequestSyncHandler(s.request, log)},
		{"delivery", tradeapp.NewDeliveryHandler(s.salesOrder, log)},
		{"purchase_receipt", inventoryapp.NewPurchaseConfirmedHandler(s.picking, log)},
		{"rma_return_picking", inventoryapp.NewRMADoneHandler(s.picking, log)},
	}
	for _, r := range reactions {
		bus.Subscribe(event.NewIdempotentHandler(r.name, r.handler, store, log, event.WithIdempotencyConfig(idem)))
	}

	for _, p := range s.publishers() {
		p.SetEventPublisher(bus)
	}
}

// legacySync builds the Odoo sync service and its scheduler. Both are nil
// when no legacy instance is configured.
func legacySync(cfg *config.Config, r *repositories, locker scheduler.TenantLocker, bm *telemetry.BusinessMetrics, log *zap.Logger) (*integrationapp.LegacySyncService, *scheduler.SyncScheduler, error) {
	if !cfg.Odoo.Enabled() {
		log.Info("legacy sync disabled, no odoo instance configured")
		return nil, nil, nil
	}
	client := odoo.NewClient(odoo.Config{
		URL:      cfg.Odoo.URL,
		Database: cfg.Odoo.Database,
		Username: cfg.Odoo.Username,
		Password: cfg.Odoo.Password,
		Timeout:  cfg.Odoo.Timeout,
	}, log)
	svc := integrationapp.NewLegacySyncService(
		odoo.NewSource(client), r.mappings, r.taxClasses, r.categories, r.partners, log,
		integrationapp.WithPageSize(cfg.Sync.PageSize),
	)

	interval := cfg.Sync.Interval
	if !cfg.Sync.Enabled {
		interval = 0
	}
	exec := scheduler.SyncExecutorFunc(func(ctx context.Context, job *scheduler.SyncJob) error {
		started := time.Now()
		resp, err := svc.Sync(ctx, job.TenantID, integrationapp.SyncRequest{Models: job.Models, Full: job.Full})
		if resp != nil {
			total, success, failed := resp.Totals()
			job.Complete(total, success, failed)
			for _, res := range resp.Results {
				for _, f := range res.FailedItems {
					job.FailedRecords = append(job.FailedRecords, string(res.Model)+": "+f.ErrorMessage)
				}
			}
			bm.RecordSync(ctx, job.TenantID, time.Since(started), success, failed, err)
		} else {
			bm.RecordSync(ctx, job.TenantID, time.Since(started), 0, 0, err)
		}
		return err
	})
	sched, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Workers:       cfg.Sync.Workers,
		JobTimeout:    cfg.Sync.JobTimeout,
		RetryAttempts: cfg.Sync.RetryAttempts,
		RetryDelay:    cfg.Sync.RetryDelay,
		Interval:      interval,
	}, exec, r.companies, log)
	if err != nil {
		return nil, nil, err
	}
	if locker != nil {
		sched.SetLocker(locker)
	}
	return svc, sched, nil
}

func newHandlers(cfg *config.Config, s *services, journal *event.Journal, blacklist auth.TokenBlacklist, syncSvc *integrationapp.LegacySyncService, sched *scheduler.SyncScheduler) router.Handlers {
	h := router.Handlers{
		Auth:    handler.NewAuthHandler(blacklist),
		Partner: handler.NewPartnerHandler(s.partner),
		Catalog: handler.NewCatalogHandler(
			s.category, s.categoryImport, s.taxClass, s.product, s.attribute, cfg.HTTP.MaxUploadSize),
		SalesOrder:    handler.NewSalesOrderHandler(s.salesOrder),
		Purchase:      handler.NewPurchaseHandler(s.purchaseOrder, s.request),
		RMA:           handler.NewRMAHandler(s.rma),
		PlatformOrder: handler.NewPlatformOrderHandler(s.platformOrder, cfg.HTTP.MaxUploadSize),
		Inventory:     handler.NewInventoryHandler(s.picking, s.companySetup),
		Finance:       handler.NewFinanceHandler(s.move, s.payment, s.taxInvoice, s.print),
		Journal:       handler.NewJournalHandler(journal),
	}
	if syncSvc != nil {
		h.Sync = handler.NewSyncHandler(sched, syncSvc)
	}
	return h
}

// newPrintService builds invoice printing. PDF output needs print.enabled
// and archiving needs storage.enabled; the returned renderer is nil when PDF
// output is off.
func newPrintService(ctx context.Context, cfg *config.Config, r *repositories, log *zap.Logger) (*financeapp.PrintService, printing.PDFRenderer, error) {
	templates, err := printing.NewTemplates()
	if err != nil {
		return nil, nil, err
	}
	var (
		opts     []financeapp.PrintOption
		renderer printing.PDFRenderer
	)
	if cfg.Print.Enabled {
		renderer = printing.NewChromedpRenderer(cfg.Print, log.Named("printing"))
		opts = append(opts, financeapp.WithRenderer(renderer, printing.ParsePaperSize(cfg.Print.PaperSize)))
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewArchive(cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			return nil, renderer, err
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, renderer, err
		}
		opts = append(opts, financeapp.WithArchive(archive))
	}
	return financeapp.NewPrintService(r.moves, r.partners, r.companies, templates, log, opts...), renderer, nil
}

// ensureCompanySetups creates the warehouse records of companies added
// while the server was down
func ensureCompanySetups(ctx context.Context, svc *inventoryapp.CompanySetupService, log *zap.Logger) {
	created, err := svc.CreateMissing(ctx)
	if err != nil {
		log.Warn("company setup check failed", zap.Error(err))
		return
	}
	if len(created) > 0 {
		log.Info("company setups created", zap.Int("count", len(created)))
	}
}

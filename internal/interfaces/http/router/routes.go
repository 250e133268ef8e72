package router

import (
	"github.com/qm/backend/internal/interfaces/http/handler"
	"github.com/qm/backend/internal/interfaces/http/middleware"
)

// Handlers collects the API handlers. Nil handlers leave their routes out.
type Handlers struct {
	Auth          *handler.AuthHandler
	Partner       *handler.PartnerHandler
	Catalog       *handler.CatalogHandler
	SalesOrder    *handler.SalesOrderHandler
	Purchase      *handler.PurchaseHandler
	RMA           *handler.RMAHandler
	PlatformOrder *handler.PlatformOrderHandler
	Inventory     *handler.InventoryHandler
	Finance       *handler.FinanceHandler
	Sync          *handler.SyncHandler
	Journal       *handler.JournalHandler
}

// DomainGroups builds the route groups of every configured handler
func DomainGroups(h Handlers) []RouteRegistrar {
	var groups []RouteRegistrar
	add := func(g *DomainGroup) { groups = append(groups, g) }

	sales := middleware.RequireGroup(middleware.GroupSalesManager)
	purchase := middleware.RequireGroup(middleware.GroupPurchaseManager)
	stock := middleware.RequireGroup(middleware.GroupStockManager)
	accounting := middleware.RequireGroup(middleware.GroupAccountant)
	catalog := middleware.RequireGroup(middleware.GroupStockManager, middleware.GroupSalesManager, middleware.GroupPurchaseManager)
	admin := middleware.RequireGroup(middleware.GroupAdmin)

	if h.Auth != nil {
		add(NewDomainGroup("auth", "/auth").
			GET("/me", h.Auth.Me).
			POST("/logout", h.Auth.Logout))
	}

	if h.Partner != nil {
		add(NewDomainGroup("partners", "/partners").
			GET("", h.Partner.List).
			POST("", h.Partner.Create).
			GET("/:id", h.Partner.GetByID).
			PUT("/:id/invoice-fields", accounting, h.Partner.SetInvoiceFields).
			POST("/:id/bank-accounts", accounting, h.Partner.AddBankAccount))
	}

	if h.Catalog != nil {
		c := h.Catalog
		add(NewDomainGroup("categories", "/categories").
			GET("", c.ListCategories).
			POST("", catalog, c.CreateCategory).
			POST("/import", catalog, c.ImportCategories).
			GET("/:id", c.GetCategory).
			PUT("/:id", catalog, c.UpdateCategory).
			DELETE("/:id", catalog, c.DeleteCategory).
			GET("/:id/tax-classification", c.EffectiveCategoryTax).
			PUT("/:id/tax-classification", accounting, c.SetCategoryTax))
		add(NewDomainGroup("tax-classifications", "/tax-classifications").
			GET("", c.ListTaxClassifications).
			POST("", accounting, c.CreateTaxClassification).
			GET("/:id", c.GetTaxClassification).
			PUT("/:id", accounting, c.UpdateTaxClassification))
		add(NewDomainGroup("attributes", "/attributes").
			GET("", c.ListAttributes).
			POST("", catalog, c.CreateAttribute).
			GET("/:id", c.GetAttribute).
			POST("/:id/values", catalog, c.AddAttributeValue))
		add(NewDomainGroup("products", "/products").
			GET("", c.ListProducts).
			POST("", catalog, c.CreateProduct).
			GET("/:id", c.GetProduct).
			POST("/:id/sellers", purchase, c.AddSeller))
	}

	if h.SalesOrder != nil {
		so := NewDomainGroup("sales-orders", "/sales-orders").
			GET("", h.SalesOrder.List).
			POST("", h.SalesOrder.Create).
			POST("/action-to-invoice", accounting, h.SalesOrder.ActionToInvoice).
			GET("/:id", h.SalesOrder.GetByID).
			POST("/:id/confirm", sales, h.SalesOrder.Confirm).
			POST("/:id/cancel", sales, h.SalesOrder.Cancel).
			POST("/:id/invoice", accounting, h.SalesOrder.CreateInvoice)
		if h.RMA != nil {
			so.GET("/:id/rmas", h.RMA.ListBySaleOrder)
		}
		add(so)
	}

	if h.Purchase != nil {
		p := h.Purchase
		add(NewDomainGroup("purchase-orders", "/purchase-orders").
			GET("", p.ListOrders).
			GET("/:id", p.GetOrder).
			POST("/:id/confirm", p.ConfirmOrder).
			POST("/:id/approve", purchase, p.ApproveOrder).
			POST("/:id/cancel", purchase, p.CancelOrder).
			POST("/:id/draft", p.ResetOrder).
			POST("/:id/bill", accounting, p.CreateBill))
		add(NewDomainGroup("purchase-requests", "/purchase-requests").
			GET("", p.ListRequests).
			POST("/purchase-order", p.OrderFromRequests).
			GET("/:id", p.GetRequest).
			PUT("/:id/partner", p.SetRequestPartner).
			POST("/:id/cancel", p.CancelRequest).
			POST("/:id/reopen", p.ReopenRequest).
			POST("/:id/done", p.DoneRequest))
	}

	if h.RMA != nil {
		r := h.RMA
		add(NewDomainGroup("rmas", "/rmas").
			GET("", r.List).
			POST("", r.Create).
			GET("/:id", r.GetByID).
			POST("/:id/return-lines", r.AddReturnLine).
			PUT("/:id/return-lines/:line_id", r.UpdateReturnLine).
			POST("/:id/exchange-lines", r.AddExchangeLine).
			DELETE("/:id/lines/:line_id", r.RemoveLine).
			POST("/:id/post", sales, r.Post).
			POST("/:id/done", sales, r.Done).
			POST("/:id/cancel", sales, r.Cancel).
			POST("/:id/draft", r.ResetToDraft))
	}

	if h.PlatformOrder != nil {
		po := h.PlatformOrder
		add(NewDomainGroup("platform-orders", "/platform-orders").
			GET("", po.List).
			POST("/import", sales, po.Import).
			GET("/:id", po.GetByID).
			POST("/:id/waiting", po.MarkWaiting).
			POST("/:id/done", po.MarkDone))
	}

	if h.Inventory != nil {
		inv := h.Inventory
		add(NewDomainGroup("pickings", "/pickings").
			GET("", inv.ListPickings).
			GET("/:id", inv.GetPicking).
			PUT("/:id/express-code", inv.SetExpressCode).
			POST("/:id/validate", stock, inv.ValidatePicking).
			POST("/:id/cancel", stock, inv.CancelPicking))
		add(NewDomainGroup("company", "/company").
			POST("/setup", admin, inv.EnsureSetup))
		add(NewDomainGroup("admin", "/admin").
			Use(admin).
			POST("/company-setups", inv.CreateMissingSetups))
	}

	if h.Finance != nil {
		f := h.Finance
		add(NewDomainGroup("moves", "/moves").
			GET("", f.ListMoves).
			POST("", accounting, f.CreateMove).
			POST("/set-state", f.SetMoveState).
			POST("/set-state2", f.SetMoveState2).
			POST("/export", accounting, f.ExportMoves).
			GET("/:id", f.GetMove).
			GET("/:id/print", f.PrintMove).
			GET("/:id/print/archive", f.ArchivedMovePDF).
			POST("/:id/post", accounting, f.PostMove).
			POST("/:id/cancel", accounting, f.CancelMove).
			POST("/:id/draft", accounting, f.ResetMove).
			POST("/:id/tax-invoices", accounting, f.AttachTaxInvoices))
		add(NewDomainGroup("payments", "/payments").
			Use(accounting).
			GET("", f.ListPayments).
			POST("", f.CreatePayment).
			GET("/:id", f.GetPayment).
			POST("/:id/post", f.PostPayment).
			POST("/:id/bank-reconciled", f.ReconcilePayment).
			POST("/:id/cancel", f.CancelPayment))
		add(NewDomainGroup("tax-invoices", "/tax-invoices").
			GET("", f.ListTaxInvoices).
			POST("", accounting, f.CreateTaxInvoice).
			GET("/:id", f.GetTaxInvoice).
			PUT("/:id/shipping", f.SetTaxInvoiceShipping).
			POST("/:id/done", accounting, f.DoneTaxInvoice).
			POST("/:id/cancel", accounting, f.CancelTaxInvoice))
	}

	if h.Sync != nil {
		add(NewDomainGroup("sync", "/sync").
			Use(admin).
			POST("", h.Sync.Trigger).
			GET("/jobs", h.Sync.History))
	}

	if h.Journal != nil {
		add(NewDomainGroup("events", "/events").
			GET("/:id", h.Journal.ByAggregate))
	}

	return groups
}

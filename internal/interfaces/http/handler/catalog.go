package handler

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/qm/backend/internal/application/catalog"
	csvimport "github.com/qm/backend/internal/infrastructure/import"
)

// CatalogHandler serves categories, tax classifications, attributes and products
type CatalogHandler struct {
	BaseHandler
	categoryService *catalogapp.CategoryService
	importService   *catalogapp.CategoryImportService
	taxClassService *catalogapp.TaxClassificationService
	productService  *catalogapp.ProductService
	attrService     *catalogapp.AttributeService
	maxUploadSize   int64
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(
	categoryService *catalogapp.CategoryService,
	importService *catalogapp.CategoryImportService,
	taxClassService *catalogapp.TaxClassificationService,
	productService *catalogapp.ProductService,
	attrService *catalogapp.AttributeService,
	maxUploadSize int64,
) *CatalogHandler {
	return &CatalogHandler{
		categoryService: categoryService,
		importService:   importService,
		taxClassService: taxClassService,
		productService:  productService,
		attrService:     attrService,
		maxUploadSize:   maxUploadSize,
	}
}

// CreateCategory handles POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req catalogapp.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.categoryService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// GetCategory handles GET /categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.categoryService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateCategory handles PUT /categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req catalogapp.UpdateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetCategoryTax handles PUT /categories/:id/tax-classification
func (h *CatalogHandler) SetCategoryTax(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req catalogapp.SetCategoryTaxRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.categoryService.SetTaxClassification(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// EffectiveCategoryTax handles GET /categories/:id/tax-classification
func (h *CatalogHandler) EffectiveCategoryTax(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.categoryService.EffectiveTaxClassification(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteCategory handles DELETE /categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	if err := h.categoryService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ImportCategories handles POST /categories/import, a multipart upload of
// the category sheet. The optional encoding field forces utf-8 or gb18030.
func (h *CatalogHandler) ImportCategories(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	file, opts, ok := h.upload(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := h.importService.Import(c.Request.Context(), tenantID, file, opts...)
	if err != nil {
		h.handleImportError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *CatalogHandler) upload(c *gin.Context) (multipart.File, []csvimport.ParserOption, bool) {
	return h.uploadFile(c, h.maxUploadSize)
}

// CreateTaxClassification handles POST /tax-classifications
func (h *CatalogHandler) CreateTaxClassification(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req catalogapp.TaxClassificationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.taxClassService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// UpdateTaxClassification handles PUT /tax-classifications/:id
func (h *CatalogHandler) UpdateTaxClassification(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req catalogapp.TaxClassificationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.taxClassService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetTaxClassification handles GET /tax-classifications/:id
func (h *CatalogHandler) GetTaxClassification(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.taxClassService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListTaxClassifications handles GET /tax-classifications
func (h *CatalogHandler) ListTaxClassifications(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.taxClassService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req catalogapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.productService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	resp, err := h.productService.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.productService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, items, total, filter.Page, filter.PageSize)
}

// AddSeller handles POST /products/:id/sellers
func (h *CatalogHandler) AddSeller(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req catalogapp.AddSellerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.productService.AddSeller(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// CreateAttribute handles POST /attributes
func (h *CatalogHandler) CreateAttribute(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	var req catalogapp.CreateAttributeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.attrService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// AddAttributeValue handles POST /attributes/:id/values
func (h *CatalogHandler) AddAttributeValue(c *gin.Context) {
	tenantID, id, ok := h.scope(c)
	if !ok {
		return
	}
	var req catalogapp.AddAttributeValueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	resp, err := h.attrService.AddValue(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetAttribute handles GET /attributes/:id
func (h *CatalogHandler) GetAttribute(c *gin.Context) {
	itemAction(&h.BaseHandler, c, h.attrService.GetByID)
}

// ListAttributes handles GET /attributes
func (h *CatalogHandler) ListAttributes(c *gin.Context) {
	tenantID, ok := h.Tenant(c)
	if !ok {
		return
	}
	filter, ok := h.listQuery(c)
	if !ok {
		return
	}
	items, total, err := h.attrService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.BaseHandler.List(c, items, total, filter.Page, filter.PageSize)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"product-api/internal/logger"
	"product-api/internal/models"
	"product-api/internal/schema"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100

	msgNotFound = "Product not found"
)

// ProductStore son las operaciones del repositorio que usan los handlers
type ProductStore interface {
	FindAll(ctx context.Context, filter map[string]any) ([]*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, input *models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, update *models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, term string) ([]*models.Product, error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.Product, error)
	FindPaginated(ctx context.Context, page, pageSize int64, filter map[string]any) (*models.Page, error)
	FindLowStock(ctx context.Context, threshold int) ([]*models.Product, error)
	GetStats(ctx context.Context) (*models.Stats, error)
	SKUExists(ctx context.Context, sku, excludeID string) (bool, error)
	BulkUpdateStock(ctx context.Context, updates []models.StockUpdate) (*models.BulkUpdateResult, error)
	BulkDelete(ctx context.Context, ids []string) (*models.BulkDeleteResult, error)
}

// Response es el sobre común de todas las respuestas
type Response struct {
	Success    bool   `json:"success"`
	Count      *int   `json:"count,omitempty"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
}

type ProductHandler struct {
	store ProductStore
}

func NewProductHandler(store ProductStore) *ProductHandler {
	return &ProductHandler{store: store}
}

// GET /api/products
func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	products, err := h.store.FindAll(c.Request.Context(), buildFilter(c))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	list(c, products)
}

// GET /api/products/:id
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	product, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	if product == nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: product})
}

// POST /api/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	product, err := h.store.Create(c.Request.Context(), &input)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	product, err := h.store.Update(c.Request.Context(), c.Param("id"), &update)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if product == nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	product, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	if product == nil {
		notFound(c)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Product deleted successfully"})
}

// GET /api/products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "Search term is required"})
		return
	}

	products, err := h.store.Search(c.Request.Context(), term)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	list(c, products)
}

// GET /api/products/status/:status
func (h *ProductHandler) GetProductsByStatus(c *gin.Context) {
	status := models.Status(c.Param("status"))
	if err := status.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	products, err := h.store.FindByStatus(c.Request.Context(), status)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	list(c, products)
}

// GET /api/products/paginated?page=&limit=
func (h *ProductHandler) GetProductsPaginated(c *gin.Context) {
	page, pageSize := getPaginationParams(c)

	result, err := h.store.FindPaginated(c.Request.Context(), page, pageSize, buildFilter(c))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	count := len(result.Products)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Count:   &count,
		Data:    result.Products,
		Pagination: gin.H{
			"totalPages":  result.TotalPages,
			"currentPage": result.CurrentPage,
			"total":       result.Total,
			"hasNextPage": result.HasNextPage,
			"hasPrevPage": result.HasPrevPage,
		},
	})
}

// GET /api/products/low-stock?threshold=
func (h *ProductHandler) GetLowStockProducts(c *gin.Context) {
	threshold, err := strconv.Atoi(c.DefaultQuery("threshold", strconv.Itoa(schema.LowStockThreshold)))
	if err != nil || threshold < 0 {
		threshold = schema.LowStockThreshold
	}

	products, err := h.store.FindLowStock(c.Request.Context(), threshold)
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}
	list(c, products)
}

// GET /api/products/stats
func (h *ProductHandler) GetProductStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: stats})
}

// GET /api/products/sku/:sku/exists?excludeId=
func (h *ProductHandler) CheckSKU(c *gin.Context) {
	exists, err := h.store.SKUExists(c.Request.Context(), c.Param("sku"), c.Query("excludeId"))
	if err != nil {
		h.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"exists": exists}})
}

// PATCH /api/products/bulk/stock
func (h *ProductHandler) BulkUpdateStock(c *gin.Context) {
	var body struct {
		Updates []models.StockUpdate `json:"updates"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if len(body.Updates) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "No stock updates provided"})
		return
	}

	result, err := h.store.BulkUpdateStock(c.Request.Context(), body.Updates)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Stock updated successfully", Data: result})
}

// POST /api/products/bulk/delete
func (h *ProductHandler) BulkDeleteProducts(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}
	if len(body.IDs) == 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: "No product IDs provided"})
		return
	}

	result, err := h.store.BulkDelete(c.Request.Context(), body.IDs)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Message: "Products deleted successfully", Data: result})
}

// --- Métodos auxiliares ---

func (h *ProductHandler) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)

	log := logger.FromGin(c)
	if status >= http.StatusInternalServerError {
		log.Error("product request failed", zap.Error(err))
	} else {
		log.Warn("product request rejected", zap.Error(err))
	}

	c.JSON(status, Response{Success: false, Message: err.Error()})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: msgNotFound})
}

func list(c *gin.Context, products []*models.Product) {
	if products == nil {
		products = []*models.Product{}
	}
	count := len(products)
	c.JSON(http.StatusOK, Response{Success: true, Count: &count, Data: products})
}

// buildFilter construye el filtro de igualdad a partir de los query params
func buildFilter(c *gin.Context) map[string]any {
	filter := map[string]any{}

	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if category := c.Query("category"); category != "" {
		filter["category"] = schema.NormalizeCategory(category)
	}
	if sku := c.Query("sku"); sku != "" {
		filter["sku"] = schema.NormalizeSKU(sku)
	}
	if active := c.Query("isActive"); active != "" {
		if b, err := strconv.ParseBool(active); err == nil {
			filter["isActive"] = b
		}
	}
	if tag := c.Query("tag"); tag != "" {
		filter["tags"] = strings.ToLower(strings.TrimSpace(tag))
	}

	return filter
}

// getPaginationParams obtiene y valida los parámetros de paginación
func getPaginationParams(c *gin.Context) (page, pageSize int64) {
	page, _ = strconv.ParseInt(c.DefaultQuery("page", strconv.Itoa(defaultPage)), 10, 64)
	pageSize, _ = strconv.ParseInt(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)), 10, 64)

	if page < 1 {
		page = defaultPage
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	return page, pageSize
}

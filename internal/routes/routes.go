package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"product-api/internal/handlers"
	"product-api/internal/logger"
	"product-api/internal/metrics"
)

// Pinger comprueba la conexión con el almacén
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.HTTPMetrics
	Store   Pinger
}

// NewRouter construye el engine con middlewares, rutas y respuestas por defecto
func NewRouter(h *handlers.ProductHandler, opts Options) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(logger.GinMiddleware(log))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
	}
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.FromGin(c).Error("panic recovered", zap.Any("panic", recovered), zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, handlers.Response{
			Success: false,
			Message: "Internal Server Error",
		})
	}))

	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.Response{Success: true, Message: "API is working"})
	})
	router.GET("/health", health(opts.Store))

	RegisterRoutes(router, h)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Response{Success: false, Message: "Route not found"})
	})

	return router
}

// RegisterRoutes registra las rutas de productos bajo /api/products
func RegisterRoutes(router gin.IRouter, h *handlers.ProductHandler) {
	products := router.Group("/api/products")
	{
		products.GET("", h.GetAllProducts)
		products.GET("/", h.GetAllProducts)
		products.POST("", h.CreateProduct)
		products.POST("/", h.CreateProduct)

		products.GET("/search", h.SearchProducts)
		products.GET("/paginated", h.GetProductsPaginated)
		products.GET("/low-stock", h.GetLowStockProducts)
		products.GET("/stats", h.GetProductStats)
		products.GET("/status/:status", h.GetProductsByStatus)
		products.GET("/sku/:sku/exists", h.CheckSKU)
		products.PATCH("/bulk/stock", h.BulkUpdateStock)
		products.POST("/bulk/delete", h.BulkDeleteProducts)

		products.GET("/:id", h.GetProductByID)
		products.PUT("/:id", h.UpdateProduct)
		products.DELETE("/:id", h.DeleteProduct)
	}
}

func health(store Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.FromGin(c).Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().Format(time.RFC3339)})
	}
}

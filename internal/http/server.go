package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"retailhub/internal/events"
	"retailhub/internal/repository"
	"retailhub/internal/service"
)

// Services everything the API delegates to.
type Services struct {
	Products      *service.ProductService
	Orders        *service.OrderService
	Inventory     *service.InventoryService
	Carts         *service.CartService
	Checkout      *service.CheckoutService
	Notifications *service.NotificationService
	Auth          *service.AuthService
	Authz         *service.AuthorizationService
	Dashboard     *service.DashboardService
	Bus           *events.Bus
}

type Server struct {
	engine *gin.Engine
	svc    Services
	log    logrus.FieldLogger
}

func NewServer(svc Services, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := gin.New()
	r.Use(requestLogger(log), gin.Recovery())
	s := &Server{engine: r, svc: svc, log: log}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.engine.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := s.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/login", s.login)
		auth.POST("/register", s.register)

		api := v1.Group("", AuthMiddleware(s.svc.Auth))
		can := func(resource, action string) gin.HandlerFunc {
			return RequirePermission(s.svc.Authz, resource, action)
		}

		products := api.Group("/products")
		products.GET("", can("products", "read"), s.listProducts)
		products.GET(":id", can("products", "read"), s.getProduct)
		products.POST("", can("products", "write"), s.createProduct)
		products.PUT(":id", can("products", "write"), s.updateProduct)
		products.DELETE(":id", can("products", "write"), s.deleteProduct)

		inventory := api.Group("/inventory")
		inventory.GET("", can("inventory", "read"), s.listInventory)
		inventory.GET("/low", can("inventory", "read"), s.lowStock)
		inventory.PUT("/:id/threshold", can("inventory", "write"), s.updateThreshold)

		cart := api.Group("/cart", can("cart", "use"))
		cart.GET("", s.getCart)
		cart.DELETE("", s.clearCart)
		cart.POST("/items", s.addCartItem)
		cart.PUT("/items/:id", s.updateCartItem)
		cart.DELETE("/items/:id", s.removeCartItem)

		checkout := api.Group("/checkout", can("cart", "use"))
		checkout.GET("/quote", s.quote)
		checkout.POST("", s.checkout)

		orders := api.Group("/orders")
		orders.GET("", can("orders", "read"), s.listOrders)
		orders.GET(":id", can("orders", "read"), s.getOrder)
		orders.PUT(":id/status", can("orders", "write"), s.setOrderStatus)

		api.GET("/profile", can("profile", "read"), s.profile)

		dashboard := api.Group("/dashboard", can("dashboard", "read"))
		dashboard.GET("", s.salesData)
		dashboard.GET("/sales", s.salesSeries)

		api.GET("/events/ws", can("dashboard", "read"), s.eventStream)
	}
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotEnoughStock), errors.Is(err, service.ErrStockLimit):
		return http.StatusConflict
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNotInCart):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": ...}; internal errors are logged and not exposed.
func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"retailhub/internal/domain"
	"retailhub/internal/service"
)

// Product handlers
type createProductReq struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Price             int64  `json:"price"`
	Stock             int64  `json:"stock"`
	ImageURL          string `json:"imageUrl"`
	LowStockThreshold int64  `json:"lowStockThreshold"`
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createProductReq true "Product"
// @Success 201 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req createProductReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Create(c, domain.Product{
		Name:              req.Name,
		Category:          req.Category,
		Price:             req.Price,
		Stock:             req.Stock,
		ImageURL:          req.ImageURL,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary Get product by id
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.svc.Products.GetByID(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update product
// @Description Only the fields present in the body are changed.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body service.ProductUpdate true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req service.ProductUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Update(c, c.Param("id"), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.svc.Products.Delete(c, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Search products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param q query string false "Name or category contains"
// @Param category query string false "Exact category, all for any"
// @Param min_price query int false "Min price, minor units"
// @Param max_price query int false "Max price, minor units"
// @Param page query int false "Page, 1-based"
// @Param page_size query int false "Page size, max 100"
// @Success 200 {object} service.SearchResult
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	q := service.SearchQuery{
		Term:     c.Query("q"),
		Category: c.Query("category"),
		MinPrice: queryInt64(c, "min_price"),
		MaxPrice: queryInt64(c, "max_price"),
	}
	if v := queryInt64(c, "page"); v != nil {
		q.Page = int(*v)
	}
	if v := queryInt64(c, "page_size"); v != nil {
		q.PageSize = int(*v)
	}
	res, err := s.svc.Products.Search(c, q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Order handlers

// @Summary List orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param customer query string false "Exact customer name"
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	var (
		list []domain.Order
		err  error
	)
	if customer := c.Query("customer"); customer != "" {
		list, err = s.svc.Orders.ListByCustomer(c, customer)
	} else {
		list, err = s.svc.Orders.List(c)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	o, err := s.svc.Orders.GetOrder(c, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type setStatusReq struct {
	Status domain.OrderStatus `json:"status"`
}

// @Summary Set order status
// @Description Any status may follow any other.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param input body setStatusReq true "Status"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/status [put]
func (s *Server) setOrderStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Orders.SetStatus(c, c.Param("id"), req.Status)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// queryInt64 returns nil for a missing or malformed parameter.
func queryInt64(c *gin.Context, name string) *int64 {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &x
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailhub/internal/domain"
	"retailhub/internal/service"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := s.svc.Auth.Login(req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Register a customer account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerReq true "Account"
// @Success 201 {object} domain.User
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := s.svc.Auth.Register(req.Name, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// session is the id carts and notifications are keyed by.
func session(c *gin.Context) (string, *domain.User) {
	u, _ := currentUser(c)
	return u.ID, u
}

// @Summary Get cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Cart
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	sid, _ := session(c)
	c.JSON(http.StatusOK, s.svc.Carts.Get(c, sid))
}

// @Summary Empty cart
// @Tags cart
// @Security BearerAuth
// @Success 204
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	sid, _ := session(c)
	s.svc.Carts.Clear(c, sid)
	c.Status(http.StatusNoContent)
}

type addItemReq struct {
	ProductID string `json:"productId"`
}

// @Summary Add one unit to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body addItemReq true "Product"
// @Success 200 {object} service.Cart
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sid, _ := session(c)
	cart, err := s.svc.Carts.Add(c, sid, req.ProductID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

type updateItemReq struct {
	Quantity int64 `json:"quantity"`
}

// @Summary Set cart line quantity
// @Description Quantity is clamped to current stock; zero removes the line.
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body updateItemReq true "Quantity"
// @Success 200 {object} service.Cart
// @Failure 404 {object} map[string]string
// @Router /cart/items/{id} [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sid, _ := session(c)
	cart, err := s.svc.Carts.UpdateQuantity(c, sid, c.Param("id"), req.Quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// @Summary Remove cart line
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} service.Cart
// @Router /cart/items/{id} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	sid, _ := session(c)
	c.JSON(http.StatusOK, s.svc.Carts.Remove(c, sid, c.Param("id")))
}

// @Summary Cart totals with tax
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Quote
// @Router /checkout/quote [get]
func (s *Server) quote(c *gin.Context) {
	sid, _ := session(c)
	c.JSON(http.StatusOK, s.svc.Checkout.Quote(c, sid))
}

// @Summary Place an order for the cart
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Accept json
// @Param Idempotency-Key header string false "Retry key"
// @Param payment body service.Payment false "Card details"
// @Success 201 {object} service.PlaceOrderResult
// @Failure 400 {object} service.PlaceOrderResult
// @Failure 409 {object} service.PlaceOrderResult
// @Router /checkout [post]
func (s *Server) checkout(c *gin.Context) {
	sid, user := session(c)
	var payment *service.Payment
	if c.Request.ContentLength != 0 {
		payment = &service.Payment{}
		if err := c.ShouldBindJSON(payment); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	res := s.svc.Checkout.Checkout(c.Request.Context(), sid, *user, c.GetHeader("Idempotency-Key"), payment)
	if !res.Success {
		c.JSON(mapErrorToStatus(res.Err), res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type profileResp struct {
	User         domain.User    `json:"user"`
	Orders       []domain.Order `json:"orders"`
	Notification string         `json:"notification,omitempty"`
}

// @Summary Current user with own orders
// @Description The pending notification is returned once and then cleared.
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} profileResp
// @Router /profile [get]
func (s *Server) profile(c *gin.Context) {
	sid, user := session(c)
	orders, err := s.svc.Orders.ListByCustomer(c, user.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	note, _ := s.svc.Notifications.Take(sid)
	c.JSON(http.StatusOK, profileResp{User: *user, Orders: orders, Notification: note})
}

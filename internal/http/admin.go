package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Inventory board
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.InventoryItem
// @Router /inventory [get]
func (s *Server) listInventory(c *gin.Context) {
	items, err := s.svc.Inventory.Inventory(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Products below their threshold
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.InventoryItem
// @Router /inventory/low [get]
func (s *Server) lowStock(c *gin.Context) {
	items, err := s.svc.Inventory.LowStock(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type thresholdReq struct {
	Threshold *int64 `json:"threshold"`
}

// @Summary Set low stock threshold
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body thresholdReq true "Threshold"
// @Success 200 {object} domain.InventoryItem
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /inventory/{id}/threshold [put]
func (s *Server) updateThreshold(c *gin.Context) {
	var req thresholdReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Threshold == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	item, err := s.svc.Inventory.UpdateThreshold(c, c.Param("id"), *req.Threshold)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// @Summary Sales dashboard
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.SalesData
// @Router /dashboard [get]
func (s *Server) salesData(c *gin.Context) {
	data, err := s.svc.Dashboard.SalesData(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// @Summary One sales chart
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param period query string true "daily, monthly, quarterly or yearly"
// @Success 200 {object} service.SalesSeries
// @Failure 400 {object} map[string]string
// @Router /dashboard/sales [get]
func (s *Server) salesSeries(c *gin.Context) {
	series, err := s.svc.Dashboard.Series(c, c.DefaultQuery("period", "monthly"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

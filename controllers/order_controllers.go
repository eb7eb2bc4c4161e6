package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/services"
	"github.com/campuseats/campus-eats/utils"
)

var ErrNoPermission = errors.New("you don't have permission for this action")

type OrderController struct {
	DB      *gorm.DB
	Service *services.OrderService
}

func NewOrderController(db *gorm.DB, svc *services.OrderService) *OrderController {
	return &OrderController{DB: db, Service: svc}
}

// CreateOrder -> place an order against an outlet. The lifecycle service
// validates, persists and notifies the outlet's dashboards.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type request struct {
		OutletID uint                        `json:"outlet_id" binding:"required"`
		Items    []services.CreateOrderItem  `json:"items" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Service.Create(services.CreateOrderInput{
		OutletID: req.OutletID,
		UserID:   c.GetUint("user_id"),
		Items:    req.Items,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetMyOrders -> the authenticated customer's orders, newest first
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	var orders []models.Order
	if err := oc.DB.Preload("Items").
		Where("user_id = ?", c.GetUint("user_id")).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My orders", orders)
}

// GetOutletOrders -> staff dashboard listing for their own outlet
func (oc *OrderController) GetOutletOrders(c *gin.Context) {
	outletID, err := strconv.ParseUint(c.Param("outlet_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid outlet id"))
		return
	}
	if !callerManagesOutlet(c, uint(outletID)) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("Items").
		Where("outlet_id = ?", outletID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Outlet orders", orders)
}

// GetOrderByID -> detail of one order; customers may only read their own,
// staff only their outlet's.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	var order models.Order
	if err := oc.DB.Preload("Items").First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	if order.UserID != c.GetUint("user_id") && !callerManagesOutlet(c, order.OutletID) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// UpdateOrderStatus -> staff progress an order through the kitchen
// workflow. Both the owner's devices and the outlet's sibling dashboards
// get notified by the service.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID, err := strconv.ParseUint(c.Param("order_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var callerOutletID *uint
	if v, exists := c.Get("outlet_id"); exists {
		if id, ok := v.(uint); ok {
			callerOutletID = &id
		}
	}

	order, err := oc.Service.UpdateStatus(uint(orderID), req.Status, callerOutletID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// respondServiceError maps the lifecycle error taxonomy onto HTTP codes.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *services.ValidationError
		notFoundErr   *services.NotFoundError
		closedErr     *services.OutletClosedError
		transitionErr *services.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.RespondError(c, http.StatusBadRequest, err)
	case errors.As(err, &notFoundErr):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.As(err, &closedErr):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.As(err, &transitionErr):
		utils.RespondError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, services.ErrNotOrderOutlet):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/utils"
)

type OutletController struct {
	DB  *gorm.DB
	Hub *broadcast.Hub
}

func NewOutletController(db *gorm.DB, hub *broadcast.Hub) *OutletController {
	return &OutletController{DB: db, Hub: hub}
}

// GetAllOutlets -> list outlets, newest first
func (oc *OutletController) GetAllOutlets(c *gin.Context) {
	var outlets []models.Outlet
	if err := oc.DB.Order("created_at desc").Find(&outlets).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of outlets", outlets)
}

// GetOutletByID -> one outlet with its menu
func (oc *OutletController) GetOutletByID(c *gin.Context) {
	var outlet models.Outlet
	if err := oc.DB.Preload("MenuItems").First(&outlet, c.Param("outlet_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("outlet not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Outlet detail", outlet)
}

// CreateOutlet -> staff registers a new outlet
func (oc *OutletController) CreateOutlet(c *gin.Context) {
	type request struct {
		Name            string `json:"name" binding:"required"`
		Description     string `json:"description" binding:"required"`
		Location        string `json:"location" binding:"required"`
		Image           string `json:"image"`
		OpeningTime     string `json:"opening_time" binding:"required"`
		ClosingTime     string `json:"closing_time" binding:"required"`
		AveragePrepTime int    `json:"average_prep_time"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	outlet := models.Outlet{
		Name:            req.Name,
		Description:     req.Description,
		Location:        req.Location,
		Image:           req.Image,
		OpeningTime:     req.OpeningTime,
		ClosingTime:     req.ClosingTime,
		IsOpen:          true,
		AveragePrepTime: req.AveragePrepTime,
	}
	if outlet.AveragePrepTime <= 0 {
		outlet.AveragePrepTime = 15
	}
	if outlet.Image == "" {
		outlet.Image = "no-photo.jpg"
	}

	if err := oc.DB.Create(&outlet).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Outlet created", outlet)
}

// ToggleOutletStatus -> flip open/closed and tell every connected client
func (oc *OutletController) ToggleOutletStatus(c *gin.Context) {
	var outlet models.Outlet
	if err := oc.DB.First(&outlet, c.Param("outlet_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("outlet not found"))
		return
	}

	if !callerManagesOutlet(c, outlet.ID) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	outlet.IsOpen = !outlet.IsOpen
	if err := oc.DB.Save(&outlet).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	oc.Hub.BroadcastAll(broadcast.EventOutletStatusChanged, broadcast.OutletStatusPayload{
		OutletID: outlet.ID,
		IsOpen:   outlet.IsOpen,
	})

	utils.RespondJSON(c, http.StatusOK, "Outlet status updated", outlet)
}

// AddMenuItem -> staff adds an item to their outlet's menu
func (oc *OutletController) AddMenuItem(c *gin.Context) {
	var outlet models.Outlet
	if err := oc.DB.First(&outlet, c.Param("outlet_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("outlet not found"))
		return
	}

	if !callerManagesOutlet(c, outlet.ID) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	type request struct {
		Name        string  `json:"name" binding:"required"`
		Description string  `json:"description"`
		Price       float64 `json:"price" binding:"required"`
		Image       string  `json:"image"`
		Category    string  `json:"category" binding:"required"`
		PrepTime    int     `json:"prep_time"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		OutletID:    outlet.ID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		IsAvailable: true,
		PrepTime:    req.PrepTime,
	}
	if item.PrepTime <= 0 {
		item.PrepTime = 10
	}
	if item.Image == "" {
		item.Image = "no-food-photo.jpg"
	}

	if err := oc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// GetMenuItems -> all items of an outlet, grouped for display
func (oc *OutletController) GetMenuItems(c *gin.Context) {
	var items []models.MenuItem
	if err := oc.DB.Where("outlet_id = ?", c.Param("outlet_id")).
		Order("category asc, name asc").
		Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}

// ToggleMenuItemAvailability -> mark an item sold out / back in stock
func (oc *OutletController) ToggleMenuItemAvailability(c *gin.Context) {
	outletID, err := strconv.ParseUint(c.Param("outlet_id"), 10, 32)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid outlet id"))
		return
	}

	if !callerManagesOutlet(c, uint(outletID)) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var item models.MenuItem
	if err := oc.DB.Where("id = ? AND outlet_id = ?", c.Param("item_id"), outletID).
		First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("menu item not found"))
		return
	}

	item.IsAvailable = !item.IsAvailable
	if err := oc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// callerManagesOutlet checks the staff token is bound to the outlet being
// mutated.
func callerManagesOutlet(c *gin.Context, outletID uint) bool {
	v, exists := c.Get("outlet_id")
	if !exists {
		return false
	}
	id, ok := v.(uint)
	return ok && id == outletID
}

package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campuseats/campus-eats/broadcast"
	"github.com/campuseats/campus-eats/models"
	"github.com/campuseats/campus-eats/utils"
)

// Publisher is the slice of the broadcast hub the lifecycle controller
// needs. *broadcast.Hub implements it; tests substitute a recorder.
type Publisher interface {
	Publish(room, event string, data interface{})
}

// OrderService enforces the order lifecycle: it validates requests,
// persists through gorm and only then hands the result to the broadcaster.
// Publish failures never roll persistence back; the store stays
// authoritative and events are advisory.
type OrderService struct {
	DB        *gorm.DB
	Publisher Publisher
}

func NewOrderService(db *gorm.DB, pub Publisher) *OrderService {
	return &OrderService{DB: db, Publisher: pub}
}

type CreateOrderItem struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

type CreateOrderInput struct {
	OutletID uint
	UserID   uint
	Items    []CreateOrderItem
}

// Create places a new order: snapshots item names and prices, computes the
// total, issues the day's KOT number and persists everything in one
// transaction. The new_order event goes to the outlet room only after the
// transaction commits.
func (s *OrderService) Create(input CreateOrderInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, &ValidationError{Msg: "no items ordered"}
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, &ValidationError{Msg: "item quantity must be at least 1"}
		}
	}

	var outlet models.Outlet
	if err := s.DB.First(&outlet, input.OutletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "outlet", ID: input.OutletID}
		}
		return nil, err
	}
	if !outlet.IsOpen {
		return nil, &OutletClosedError{OutletID: outlet.ID}
	}

	now := time.Now()
	prep := outlet.AveragePrepTime
	if prep <= 0 {
		prep = 15
	}
	pickup := now.Add(time.Duration(prep) * time.Minute)

	order := models.Order{
		UserID:              input.UserID,
		OutletID:            outlet.ID,
		Status:              models.OrderStatusPending,
		EstimatedPickupTime: &pickup,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var total float64
		for _, item := range input.Items {
			var menuItem models.MenuItem
			if err := tx.Where("id = ? AND outlet_id = ?", item.MenuItemID, outlet.ID).
				First(&menuItem).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Resource: "menu item", ID: item.MenuItemID}
				}
				return err
			}
			if !menuItem.IsAvailable {
				return &ValidationError{Msg: menuItem.Name + " is currently unavailable"}
			}
			total += menuItem.Price * float64(item.Quantity)
			order.Items = append(order.Items, models.OrderItem{
				MenuItemID: menuItem.ID,
				Name:       menuItem.Name,
				Quantity:   item.Quantity,
				Price:      menuItem.Price,
			})
		}
		order.TotalAmount = total

		kot, err := nextKotNumber(tx, outlet.ID, now)
		if err != nil {
			return err
		}
		order.KotNumber = kot

		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order #%d (KOT %d) created for outlet %d", order.ID, order.KotNumber, order.OutletID)
	s.Publisher.Publish(broadcast.OutletRoom(order.OutletID), broadcast.EventNewOrder, order)

	return &order, nil
}

// UpdateStatus progresses an order along the lifecycle graph. The caller's
// outlet must own the order. On success two events carry the identical
// updated order: order_status_updated to the owner's user room and
// order_updated to the outlet room.
func (s *OrderService) UpdateStatus(orderID uint, newStatus models.OrderStatus, callerOutletID *uint) (*models.Order, error) {
	if !KnownStatus(newStatus) {
		return nil, &ValidationError{Msg: "unknown status " + string(newStatus)}
	}

	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, err
	}

	if callerOutletID == nil || *callerOutletID != order.OutletID {
		return nil, ErrNotOrderOutlet
	}

	if !CanTransition(order.Status, newStatus) {
		return nil, &InvalidTransitionError{From: order.Status, To: newStatus}
	}

	order.Status = newStatus
	order.UpdatedAt = time.Now()
	if err := s.DB.Model(&order).
		Updates(map[string]interface{}{"status": order.Status, "updated_at": order.UpdatedAt}).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Order #%d -> %s", order.ID, order.Status)
	s.Publisher.Publish(broadcast.UserRoom(order.UserID), broadcast.EventOrderStatusUpdated, order)
	s.Publisher.Publish(broadcast.OutletRoom(order.OutletID), broadcast.EventOrderUpdated, order)

	return &order, nil
}

// nextKotNumber atomically increments the outlet's counter for the calendar
// day and returns the new value. The increment runs as a single UPDATE
// inside the caller's transaction, so concurrent creates serialize on the
// counter row instead of racing a read-then-write.
func nextKotNumber(tx *gorm.DB, outletID uint, now time.Time) (int, error) {
	day := now.Format("2006-01-02")

	counter := models.OrderCounter{OutletID: outletID, Day: day}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outlet_id"}, {Name: "day"}},
		DoNothing: true,
	}).Create(&counter).Error; err != nil {
		return 0, err
	}

	if err := tx.Model(&models.OrderCounter{}).
		Where("outlet_id = ? AND day = ?", outletID, day).
		Update("last_number", gorm.Expr("last_number + 1")).Error; err != nil {
		return 0, err
	}

	var updated models.OrderCounter
	if err := tx.Where("outlet_id = ? AND day = ?", outletID, day).
		First(&updated).Error; err != nil {
		return 0, err
	}
	return updated.LastNumber, nil
}

package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusPickedUp  OrderStatus = "picked-up"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID                  uint        `gorm:"primaryKey" json:"id"`
	UserID              uint        `gorm:"not null;index" json:"user_id"`
	User                User        `gorm:"foreignKey:UserID" json:"-"`
	OutletID            uint        `gorm:"not null;index" json:"outlet_id"`
	Outlet              Outlet      `gorm:"foreignKey:OutletID" json:"-"`
	Items               []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount         float64     `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status              OrderStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	KotNumber           int         `gorm:"not null" json:"kot_number"` // sequential per outlet per day
	EstimatedPickupTime *time.Time  `json:"estimated_pickup_time,omitempty"`
	CreatedAt           time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time   `gorm:"not null" json:"updated_at"`
}

// IsTerminal reports whether no further status change is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPickedUp || s == OrderStatusCancelled
}

package models

import "time"

// OrderCounter issues the per-outlet, per-day KOT sequence. One row per
// outlet per calendar day, incremented atomically inside the order-create
// transaction so concurrent creates never observe the same number.
type OrderCounter struct {
	ID         uint      `gorm:"primaryKey"`
	OutletID   uint      `gorm:"not null;uniqueIndex:idx_outlet_day"`
	Day        string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_outlet_day"` // YYYY-MM-DD, outlet-local
	LastNumber int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

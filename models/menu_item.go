package models

import "time"

type MenuItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OutletID    uint      `gorm:"not null;index" json:"outlet_id"`
	Outlet      Outlet    `gorm:"foreignKey:OutletID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"type:varchar(255); not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:decimal(10,2); not null" json:"price"`
	Image       string    `gorm:"type:varchar(255); default:'no-food-photo.jpg'" json:"image"`
	Category    string    `gorm:"type:varchar(100); not null" json:"category"`
	IsAvailable bool      `gorm:"not null; default:true" json:"is_available"`
	PrepTime    int       `gorm:"not null; default:10" json:"prep_time"` // minutes
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

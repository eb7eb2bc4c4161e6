package models

import "time"

type Outlet struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"type:varchar(255); unique; not null" json:"name"`
	Description     string     `gorm:"type:text; not null" json:"description"`
	Location        string     `gorm:"type:varchar(255); not null" json:"location"` // e.g. "Block A"
	Image           string     `gorm:"type:varchar(255); default:'no-photo.jpg'" json:"image"`
	OpeningTime     string     `gorm:"type:varchar(10); not null" json:"opening_time"`
	ClosingTime     string     `gorm:"type:varchar(10); not null" json:"closing_time"`
	IsOpen          bool       `gorm:"not null; default:true" json:"is_open"`
	AveragePrepTime int        `gorm:"not null; default:15" json:"average_prep_time"` // minutes
	MenuItems       []MenuItem `gorm:"foreignKey:OutletID" json:"menu_items,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255); not null" json:"name"`
	Email     string    `gorm:"type:varchar(255); unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255); not null" json:"-"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	StudentID string    `gorm:"type:varchar(50)" json:"student_id"`
	Role      string    `gorm:"type:varchar(20); not null; default:'student'" json:"role"` // student, staff
	OutletID  *uint     `gorm:"index" json:"outlet_id,omitempty"`                          // set for staff accounts
	Outlet    *Outlet   `gorm:"foreignKey:OutletID" json:"outlet,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// Practice is an internship offer published by a company. A placement is one
// student assigned to one practice.
type Practice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	CompanyID   uint      `gorm:"not null;index" json:"company_id"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

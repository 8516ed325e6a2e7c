package models

import "time"

const (
	RoleStudent     = "student"
	RoleProfessor   = "professor"
	RoleCompany     = "company"
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"
	// RoleService is carried by tokens minted for service-to-service calls.
	RoleService = "service"
)

// User is the read side of the identity directory. Credentials live in the
// auth service, not here.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Role      string    `gorm:"type:varchar(32);not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

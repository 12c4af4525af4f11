package models

import "time"

type Role string

const (
	RoleWaiter  Role = "garcom"
	RoleKitchen Role = "cozinha"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleWaiter || r == RoleKitchen || r == RoleAdmin
}

// Staff is a restaurant account ("usuario"). The PIN is stored and compared
// in plain text, as the existing data expects.
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"column:restaurante_id;not null;index" json:"restaurant_id"`
	Name         string    `gorm:"column:nome;type:varchar(255);not null" json:"name"`
	PIN          string    `gorm:"column:pin;type:varchar(4);not null" json:"-"`
	Role         Role      `gorm:"column:tipo;type:varchar(20);not null" json:"role"`
	Active       bool      `gorm:"column:ativo;not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Staff) TableName() string { return "usuarios" }

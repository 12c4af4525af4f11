package models

import "time"

type TableStatus string

const (
	TableStatusFree         TableStatus = "livre"
	TableStatusOccupied     TableStatus = "ocupada"
	TableStatusOrderPending TableStatus = "pedido_pendente"
)

// Table is a pre-provisioned seating unit ("mesa").
type Table struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	RestaurantID uint        `gorm:"column:restaurante_id;not null;index" json:"restaurant_id"`
	Number       int         `gorm:"column:numero;not null" json:"number"`
	Status       TableStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (Table) TableName() string { return "mesas" }

func (t Table) ChangeKey() (uint, uint, string) {
	return t.ID, t.RestaurantID, string(t.Status)
}

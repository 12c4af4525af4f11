package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the stored token of an order's lifecycle state.
type OrderStatus string

const (
	OrderStatusNew           OrderStatus = "novo"
	OrderStatusInPreparation OrderStatus = "em_preparo"
	OrderStatusReady         OrderStatus = "pronto"
	OrderStatusDelivered     OrderStatus = "entregue"
	OrderStatusClosed        OrderStatus = "fechado"
	OrderStatusArchived      OrderStatus = "arquivado"
	OrderStatusCancelled     OrderStatus = "cancelado"
)

// LateAfter is how long an order may wait before the kitchen display flags it.
const LateAfter = 15 * time.Minute

// OpenOrderStatuses are the statuses that still count toward a table's bill.
var OpenOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusInPreparation,
	OrderStatusReady,
	OrderStatusDelivered,
}

// IsOpen reports whether the status belongs to the billing open set.
func (s OrderStatus) IsOpen() bool {
	for _, open := range OpenOrderStatuses {
		if s == open {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known tokens.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusInPreparation, OrderStatusReady, OrderStatusDelivered,
		OrderStatusClosed, OrderStatusArchived, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	RestaurantID         uint            `gorm:"column:restaurante_id;not null;index;uniqueIndex:idx_pedidos_restaurant_key,priority:1" json:"restaurant_id"`
	TableID              uint            `gorm:"column:mesa_id;not null;index" json:"table_id"`
	Table                *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	WaiterID             uint            `gorm:"column:garcom_id;not null;index" json:"waiter_id"`
	Waiter               *Staff          `gorm:"foreignKey:WaiterID" json:"waiter,omitempty"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Total                decimal.Decimal `gorm:"column:total;type:decimal(10,2);not null" json:"total"`
	Note                 *string         `gorm:"column:observacoes;type:text" json:"note,omitempty"`
	Status               OrderStatus     `gorm:"column:status;type:varchar(20);not null;index" json:"status"`
	IdempotencyKey       *string         `gorm:"column:idempotency_key;type:varchar(64);uniqueIndex:idx_pedidos_restaurant_key,priority:2" json:"-"`
	PreparationStartedAt *time.Time      `gorm:"column:inicio_preparo" json:"preparation_started_at,omitempty"`
	CreatedAt            time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "pedidos" }

// ChangeKey identifies the order on the change feed.
func (o Order) ChangeKey() (uint, uint, string) {
	return o.ID, o.RestaurantID, string(o.Status)
}

// ElapsedSince measures the wait shown on the kitchen display: from the
// preparation start once in preparation, from creation otherwise.
func (o *Order) ElapsedSince(now time.Time) time.Duration {
	start := o.CreatedAt
	if o.Status == OrderStatusInPreparation && o.PreparationStartedAt != nil {
		start = *o.PreparationStartedAt
	}
	if now.Before(start) {
		return 0
	}
	return now.Sub(start)
}

func (o *Order) IsLate(now time.Time) bool {
	return o.ElapsedSince(now) > LateAfter
}

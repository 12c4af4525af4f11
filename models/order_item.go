package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem is a snapshot of a menu item taken when the order was submitted.
// MenuItemID is informational only; name and price are never re-read from the menu.
type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"column:pedido_id;not null;index" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order      *Order          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID *uint           `gorm:"column:cardapio_id" json:"menu_item_id,omitempty"`
	Name       string          `gorm:"column:nome_item;type:varchar(255);not null" json:"name"`
	Quantity   int             `gorm:"column:quantidade;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"column:preco_unitario;type:decimal(10,2);not null" json:"unit_price"`
	Note       string          `gorm:"column:observacoes;type:text" json:"note,omitempty"`
}

func (OrderItem) TableName() string { return "itens_pedido" }

// Subtotal is quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

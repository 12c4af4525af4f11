package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuCategory string

const (
	CategoryStarters MenuCategory = "entradas"
	CategoryMains    MenuCategory = "pratos"
	CategoryDrinks   MenuCategory = "bebidas"
	CategoryDesserts MenuCategory = "sobremesas"
)

// MenuCategories lists categories in display order.
var MenuCategories = []MenuCategory{CategoryStarters, CategoryMains, CategoryDrinks, CategoryDesserts}

// IsDrink reports whether items of this category skip the kitchen.
func (c MenuCategory) IsDrink() bool { return c == CategoryDrinks }

type MenuItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"column:restaurante_id;not null;index" json:"restaurant_id"`
	Name         string          `gorm:"column:nome;type:varchar(255);not null" json:"name"`
	Description  string          `gorm:"column:descricao;type:text" json:"description"`
	Category     MenuCategory    `gorm:"column:categoria;type:varchar(20);not null" json:"category"`
	Price        decimal.Decimal `gorm:"column:preco;type:decimal(10,2);not null" json:"price"`
	Available    bool            `gorm:"column:disponivel;not null" json:"available"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (MenuItem) TableName() string { return "cardapio" }

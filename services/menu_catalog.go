package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/shopspring/decimal"
)

// MenuCatalog is the admin side of the menu. Edits never touch placed orders,
// whose line items are snapshots.
type MenuCatalog struct {
	Store database.DataStore
}

func NewMenuCatalog(store database.DataStore) *MenuCatalog {
	return &MenuCatalog{Store: store}
}

type MenuItemInput struct {
	Name        string
	Description string
	Category    models.MenuCategory
	Price       decimal.Decimal
	Available   bool
}

func validCategory(c models.MenuCategory) bool {
	for _, known := range models.MenuCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (m *MenuCatalog) Create(ctx context.Context, restaurantID uint, in MenuItemInput) (*models.MenuItem, error) {
	const op = "create menu item"
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, validationErr(op, "name is required")
	case !validCategory(in.Category):
		return nil, validationErr(op, "unknown category %q", in.Category)
	case in.Price.IsNegative():
		return nil, validationErr(op, "price must not be negative")
	}

	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		Category:     in.Category,
		Price:        in.Price.Round(2),
		Available:    in.Available,
	}
	if err := m.Store.Insert(ctx, item); err != nil {
		return nil, persistenceErr(op, err)
	}
	return item, nil
}

// MenuItemPatch changes only the fields that are set.
type MenuItemPatch struct {
	Name        *string
	Description *string
	Category    *models.MenuCategory
	Price       *decimal.Decimal
	Available   *bool
}

func (m *MenuCatalog) Update(ctx context.Context, restaurantID, itemID uint, p MenuItemPatch) error {
	const op = "update menu item"
	patch := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return validationErr(op, "name is required")
		}
		patch["nome"] = name
	}
	if p.Description != nil {
		patch["descricao"] = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		if !validCategory(*p.Category) {
			return validationErr(op, "unknown category %q", *p.Category)
		}
		patch["categoria"] = *p.Category
	}
	if p.Price != nil {
		if p.Price.IsNegative() {
			return validationErr(op, "price must not be negative")
		}
		patch["preco"] = p.Price.Round(2)
	}
	if p.Available != nil {
		patch["disponivel"] = *p.Available
	}
	if len(patch) == 0 {
		return validationErr(op, "nothing to update")
	}

	n, err := m.Store.Update(ctx, &models.MenuItem{},
		[]database.Cond{database.Eq("id", itemID), database.Eq("restaurante_id", restaurantID)}, patch)
	if err != nil {
		return persistenceErr(op, err)
	}
	if n == 0 {
		return opErr(op, ErrNotFound, fmt.Errorf("menu item %d", itemID))
	}
	return nil
}

// List returns every item, available or not, by category and name.
func (m *MenuCatalog) List(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := m.Store.Select(ctx, &items, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID)},
		Order: "categoria ASC, nome ASC",
	})
	if err != nil {
		return nil, persistenceErr("list menu", err)
	}
	return items, nil
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/shopspring/decimal"
)

type MenuController struct {
	Engine  *services.OrderEngine
	Catalog *services.MenuCatalog
}

func NewMenuController(engine *services.OrderEngine, catalog *services.MenuCatalog) *MenuController {
	return &MenuController{Engine: engine, Catalog: catalog}
}

// GetMenu returns the available items grouped by category.
func (mc *MenuController) GetMenu(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sections, err := mc.Engine.Menu(c.Request.Context(), p.RestaurantID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", sections)
}

// GetAllMenus lists every item, including unavailable ones.
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	items, err := mc.Catalog.List(c.Request.Context(), p.RestaurantID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req struct {
		Name        string              `json:"name" binding:"required"`
		Description string              `json:"description"`
		Category    models.MenuCategory `json:"category" binding:"required"`
		Price       decimal.Decimal     `json:"price"`
		Available   *bool               `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	item, err := mc.Catalog.Create(c.Request.Context(), p.RestaurantID, services.MenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Available:   available,
	})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var req struct {
		Name        *string              `json:"name"`
		Description *string              `json:"description"`
		Category    *models.MenuCategory `json:"category"`
		Price       *decimal.Decimal     `json:"price"`
		Available   *bool                `json:"available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	err := mc.Catalog.Update(c.Request.Context(), p.RestaurantID, itemID, services.MenuItemPatch{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Available:   req.Available,
	})
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", gin.H{"item_id": itemID})
}

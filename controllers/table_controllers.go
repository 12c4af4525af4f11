package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

type TableController struct {
	Tables *services.TableSessionManager
}

func NewTableController(tables *services.TableSessionManager) *TableController {
	return &TableController{Tables: tables}
}

// GetAllTables returns the floor plan.
func (tc *TableController) GetAllTables(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	floor, err := tc.Tables.Floor(c.Request.Context(), p.RestaurantID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", floor)
}

func (tc *TableController) ownedTable(c *gin.Context) (*models.Table, bool) {
	p, ok := principal(c)
	if !ok {
		return nil, false
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return nil, false
	}
	table, err := tc.Tables.Table(c.Request.Context(), p.RestaurantID, tableID)
	if err != nil {
		respondServiceError(c, err, nil)
		return nil, false
	}
	return table, true
}

// GetSession returns the running bill of a table.
func (tc *TableController) GetSession(c *gin.Context) {
	table, ok := tc.ownedTable(c)
	if !ok {
		return
	}
	session, err := tc.Tables.ComputeSession(c.Request.Context(), table.ID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table session", session)
}

// CloseTable closes every open order of the table and frees it.
func (tc *TableController) CloseTable(c *gin.Context) {
	table, ok := tc.ownedTable(c)
	if !ok {
		return
	}
	result, err := tc.Tables.CloseTable(c.Request.Context(), table.ID)
	if err != nil {
		respondServiceError(c, err, result)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table closed", result)
}

package controllers_test

import (
	"net/http"
	"testing"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSessionAndClose(t *testing.T) {
	s := newServer(t)
	waiter := s.token(t, s.fx.Waiter)
	s.submit(t, s.fx.Food)
	s.submit(t, s.fx.Drink)
	base := "/tables/" + itoa(s.fx.Table.ID)

	w, resp := s.do(t, http.MethodGet, base+"/session", waiter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var session services.Session
	decode(t, resp.Data, &session)
	assert.Len(t, session.Orders, 2)
	assert.Equal(t, 2, session.ItemCount)
	assert.True(t, session.Total.Equal(decimal.RequireFromString("48.50")))

	w, resp = s.do(t, http.MethodGet, "/tables", waiter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var floor []services.FloorTable
	decode(t, resp.Data, &floor)
	require.Len(t, floor, 1)
	assert.Equal(t, 2, floor[0].OpenOrders)
	assert.Equal(t, models.TableStatusOccupied, floor[0].Status)

	w, resp = s.do(t, http.MethodPost, base+"/close", waiter, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.CloseResult
	decode(t, resp.Data, &result)
	assert.Equal(t, 2, result.ClosedOrders)
	assert.True(t, result.Total.Equal(decimal.RequireFromString("48.50")))
	assert.Equal(t, models.TableStatusFree, s.tableStatus(t))

	w, resp = s.do(t, http.MethodGet, base+"/session", waiter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, resp.Data, &session)
	assert.Empty(t, session.Orders)
	assert.True(t, session.Total.IsZero())
}

func TestCloseUnknownTable(t *testing.T) {
	s := newServer(t)
	w, resp := s.do(t, http.MethodPost, "/tables/999/close", s.token(t, s.fx.Waiter), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", resp.Code)

	w, _ = s.do(t, http.MethodPost, "/tables/"+itoa(s.fx.Table.ID)+"/close", s.token(t, s.fx.Cook), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

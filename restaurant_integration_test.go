package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/database/dbtest"
	"github.com/leonardo27oliveira02-spec/garccom-app/kds"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/router"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Status bool            `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
}

func call(t *testing.T, baseURL, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func login(t *testing.T, baseURL, name, pin string) string {
	t.Helper()
	status, resp := call(t, baseURL, http.MethodPost, "/login", "", gin.H{"name": name, "pin": pin})
	require.Equal(t, http.StatusOK, status, string(resp.Data))
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.Token
}

// TestEndToEndIntegration follows one table through a service:
// login, order, kitchen, ready alert on the waiter terminal, delivery,
// closing the table and the next day's archival.
func TestEndToEndIntegration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	fx := dbtest.Seed(t, db, 1)

	feed := realtime.NewFeed()
	store := database.NewGormStore(db, feed, database.DefaultOptions())
	orders := services.NewOrderEngine(store, nil)
	tables := services.NewTableSessionManager(store)
	reset := services.NewDailyResetService(store, time.UTC)
	var clock atomic.Int64
	clock.Store(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC).Unix())
	reset.Now = func() time.Time { return time.Unix(clock.Load(), 0).UTC() }

	r := router.SetupRouter(router.Dependencies{
		Orders:        orders,
		Tables:        tables,
		Staff:         services.NewStaffDirectory(store),
		Menu:          services.NewMenuCatalog(store),
		Reset:         reset,
		Views:         &services.Views{Orders: orders, Tables: tables, Refresh: services.DefaultViewRefresh()},
		Feed:          store,
		Hub:           kds.NewHub(),
		AllowedOrigin: "*",
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	monitor := services.NewChangeMonitor(db, feed)
	monitor.Interval = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go monitor.Run(ctx)

	waiter := login(t, srv.URL, "Ana", "1234")
	cook := login(t, srv.URL, "Caio", "5678")

	// waiter terminal
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/waiter?token=" + waiter
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	var first kds.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, kds.EventSnapshot, first.Event)

	// 1. order
	tablePath := "/tables/" + strconv.FormatUint(uint64(fx.Table.ID), 10)
	status, resp := call(t, srv.URL, http.MethodPost, tablePath+"/orders", waiter,
		gin.H{"items": []gin.H{{"menu_item_id": fx.Food.ID}, {"menu_item_id": fx.Drink.ID}}})
	require.Equal(t, http.StatusCreated, status, string(resp.Data))
	var order models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	orderPath := "/orders/" + strconv.FormatUint(uint64(order.ID), 10)

	// 2. kitchen
	for _, step := range [][2]string{{"novo", "em_preparo"}, {"em_preparo", "pronto"}} {
		status, resp = call(t, srv.URL, http.MethodPost, orderPath+"/advance", cook, gin.H{"from": step[0], "to": step[1]})
		require.Equal(t, http.StatusOK, status, string(resp.Data))
	}

	// 3. the waiter hears about it once
	var sounds, notes int
	deadline := time.Now().Add(5 * time.Second)
	for sounds == 0 || notes == 0 {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var raw struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&raw))
		if raw.Event != kds.EventAlert {
			continue
		}
		var alert realtime.Alert
		require.NoError(t, json.Unmarshal(raw.Data, &alert))
		assert.Equal(t, order.ID, alert.OrderID)
		switch alert.Kind {
		case realtime.AlertSound:
			sounds++
		case realtime.AlertNotification:
			notes++
		}
	}
	assert.Equal(t, 1, sounds)
	assert.Equal(t, 1, notes)

	// 4. delivery and closing
	status, _ = call(t, srv.URL, http.MethodPost, orderPath+"/deliver", waiter, nil)
	require.Equal(t, http.StatusOK, status)
	status, resp = call(t, srv.URL, http.MethodPost, tablePath+"/close", waiter, nil)
	require.Equal(t, http.StatusOK, status, string(resp.Data))
	var closed services.CloseResult
	require.NoError(t, json.Unmarshal(resp.Data, &closed))
	assert.Equal(t, 1, closed.ClosedOrders)

	var table models.Table
	require.NoError(t, db.First(&table, fx.Table.ID).Error)
	assert.Equal(t, models.TableStatusFree, table.Status)

	// 5. the first login of the next day archives the closed order
	clock.Add(int64(24 * time.Hour / time.Second))
	login(t, srv.URL, "Ana", "1234")
	var stored models.Order
	require.NoError(t, db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusArchived, stored.Status)
}

package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/database/dbtest"
	"github.com/leonardo27oliveira02-spec/garccom-app/kds"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/router"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const restaurantID uint = 7

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

type server struct {
	db      *gorm.DB
	feed    *realtime.Feed
	fx      dbtest.Fixture
	admin   models.Staff
	hub     *kds.Hub
	monitor *services.ChangeMonitor
	r       *gin.Engine
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)
	db := dbtest.Open(t)
	fx := dbtest.Seed(t, db, restaurantID)
	admin := models.Staff{RestaurantID: restaurantID, Name: "Rita", PIN: "0000", Role: models.RoleAdmin, Active: true}
	require.NoError(t, db.Create(&admin).Error)

	feed := realtime.NewFeed()
	opts := database.DefaultOptions()
	opts.ReadRetries = 0
	store := database.NewGormStore(db, feed, opts)

	orders := services.NewOrderEngine(store, nil)
	tables := services.NewTableSessionManager(store)
	refresh := services.ViewRefresh{Kitchen: time.Minute, Waiter: time.Minute, Floor: time.Minute}
	hub := kds.NewHub()

	r := router.SetupRouter(router.Dependencies{
		Orders:        orders,
		Tables:        tables,
		Staff:         services.NewStaffDirectory(store),
		Menu:          services.NewMenuCatalog(store),
		Reset:         services.NewDailyResetService(store, time.UTC),
		Views:         &services.Views{Orders: orders, Tables: tables, Refresh: refresh},
		Feed:          store,
		Hub:           hub,
		Limiter:       middlewares.NewRateLimiter(rate.Every(time.Hour), 3),
		AllowedOrigin: "*",
	})
	return &server{db: db, feed: feed, fx: fx, admin: admin, hub: hub, monitor: services.NewChangeMonitor(db, feed), r: r}
}

func (s *server) token(t *testing.T, staff models.Staff) string {
	t.Helper()
	token, err := utils.GenerateToken(staff.ID, staff.RestaurantID, string(staff.Role))
	require.NoError(t, err)
	return token
}

func (s *server) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)

	var resp response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func decode(t *testing.T, raw json.RawMessage, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dest), string(raw))
}

func cart(items ...models.MenuItem) gin.H {
	list := make([]gin.H, len(items))
	for i, item := range items {
		list[i] = gin.H{"menu_item_id": item.ID}
	}
	return gin.H{"items": list}
}

func (s *server) orderStatus(t *testing.T, id uint) models.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, s.db.First(&order, id).Error)
	return order.Status
}

func (s *server) tableStatus(t *testing.T) models.TableStatus {
	t.Helper()
	var table models.Table
	require.NoError(t, s.db.First(&table, s.fx.Table.ID).Error)
	return table.Status
}

func (s *server) ordersURL() string {
	return "/tables/" + itoa(s.fx.Table.ID) + "/orders"
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/database/dbtest"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errInjected = errors.New("injected store failure")

const restaurantID uint = 3

type env struct {
	db    *gorm.DB
	feed  *realtime.Feed
	store *database.GormStore
	fx    dbtest.Fixture
}

func newEnv(t *testing.T) *env {
	db := dbtest.Open(t)
	feed := realtime.NewFeed()
	opts := database.DefaultOptions()
	opts.ReadRetries = 0
	return &env{
		db:    db,
		feed:  feed,
		store: database.NewGormStore(db, feed, opts),
		fx:    dbtest.Seed(t, db, restaurantID),
	}
}

// seedOrder writes an order with one item per price directly, bypassing the engine.
func (e *env) seedOrder(t *testing.T, status models.OrderStatus, prices ...string) models.Order {
	t.Helper()
	order := models.Order{
		RestaurantID: e.fx.RestaurantID,
		TableID:      e.fx.Table.ID,
		WaiterID:     e.fx.Waiter.ID,
		Total:        decimal.Zero,
		Status:       status,
	}
	for _, p := range prices {
		price := decimal.RequireFromString(p)
		order.Total = order.Total.Add(price)
		order.Items = append(order.Items, models.OrderItem{Name: "item " + p, Quantity: 1, UnitPrice: price})
	}
	require.NoError(t, e.db.Create(&order).Error)
	return order
}

func (e *env) setTableStatus(t *testing.T, status models.TableStatus) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Table{}).Where("id = ?", e.fx.Table.ID).Update("status", status).Error)
}

func (e *env) tableStatus(t *testing.T) models.TableStatus {
	t.Helper()
	var table models.Table
	require.NoError(t, e.db.First(&table, e.fx.Table.ID).Error)
	return table.Status
}

func (e *env) orderStatus(t *testing.T, id uint) models.OrderStatus {
	t.Helper()
	var order models.Order
	require.NoError(t, e.db.First(&order, id).Error)
	return order.Status
}

func (e *env) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func isTable(model interface{}) bool {
	_, ok := model.(*models.Table)
	return ok
}

func isOrder(model interface{}) bool {
	_, ok := model.(*models.Order)
	return ok
}

// faultyStore fails chosen calls of the wrapped store.
type faultyStore struct {
	database.DataStore

	mu          sync.Mutex
	updateCalls int
	failUpdate  func(model interface{}, call int) bool
	failInsert  func(record interface{}) bool
	failSelect  bool
}

func (f *faultyStore) Update(ctx context.Context, model interface{}, where []database.Cond, patch map[string]interface{}) (int64, error) {
	f.mu.Lock()
	f.updateCalls++
	call := f.updateCalls
	f.mu.Unlock()
	if f.failUpdate != nil && f.failUpdate(model, call) {
		return 0, errInjected
	}
	return f.DataStore.Update(ctx, model, where, patch)
}

func (f *faultyStore) Insert(ctx context.Context, record interface{}) error {
	if f.failInsert != nil && f.failInsert(record) {
		return errInjected
	}
	return f.DataStore.Insert(ctx, record)
}

func (f *faultyStore) Select(ctx context.Context, dest interface{}, q database.Query) error {
	if f.failSelect {
		return errInjected
	}
	return f.DataStore.Select(ctx, dest, q)
}

func (f *faultyStore) Transaction(ctx context.Context, fn func(tx database.DataStore) error) error {
	return f.DataStore.Transaction(ctx, func(tx database.DataStore) error {
		return fn(&faultyStore{DataStore: tx, failUpdate: f.failUpdate, failInsert: f.failInsert, failSelect: f.failSelect})
	})
}

// memoryGuard is an in-process idempotency guard.
type memoryGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryGuard() *memoryGuard { return &memoryGuard{keys: map[string]bool{}} }

func (g *memoryGuard) Reserve(_ context.Context, restaurantID uint, key string) (bool, error) {
	key = fmt.Sprintf("%d:%s", restaurantID, key)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, restaurantID uint, key string) error {
	key = fmt.Sprintf("%d:%s", restaurantID, key)
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

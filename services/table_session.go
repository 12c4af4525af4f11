package services

import (
	"context"
	"fmt"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Session is the running bill of a table: every open order, oldest first.
type Session struct {
	TableID   uint            `json:"table_id"`
	Orders    []models.Order  `json:"orders"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

type CloseResult struct {
	TableID      uint            `json:"table_id"`
	ClosedOrders int             `json:"closed_orders"`
	Total        decimal.Decimal `json:"total"`
}

// FloorTable is one table as the floor plan shows it.
type FloorTable struct {
	models.Table
	OpenOrders int             `json:"open_orders"`
	Total      decimal.Decimal `json:"total"`
}

type TableSessionManager struct {
	Store database.DataStore
}

func NewTableSessionManager(store database.DataStore) *TableSessionManager {
	return &TableSessionManager{Store: store}
}

// Table loads a table of the restaurant.
func (m *TableSessionManager) Table(ctx context.Context, restaurantID, tableID uint) (*models.Table, error) {
	return m.findTable(ctx, "get table", tableID, restaurantID)
}

// findTable matches any restaurant when restaurantID is zero.
func (m *TableSessionManager) findTable(ctx context.Context, op string, tableID, restaurantID uint) (*models.Table, error) {
	where := []database.Cond{database.Eq("id", tableID)}
	if restaurantID != 0 {
		where = append(where, database.Eq("restaurante_id", restaurantID))
	}
	var tables []models.Table
	if err := m.Store.Select(ctx, &tables, database.Query{Where: where, Limit: 1}); err != nil {
		return nil, persistenceErr(op, err)
	}
	if len(tables) == 0 {
		return nil, opErr(op, ErrNotFound, fmt.Errorf("table %d", tableID))
	}
	return &tables[0], nil
}

func (m *TableSessionManager) openOrders(ctx context.Context, where ...database.Cond) ([]models.Order, error) {
	return openOrdersIn(ctx, m.Store, where...)
}

func openOrdersIn(ctx context.Context, store database.DataStore, where ...database.Cond) ([]models.Order, error) {
	orders := []models.Order{}
	err := store.Select(ctx, &orders, database.Query{
		Where: append(where, database.In("status", statusTokens(models.OpenOrderStatuses...))),
		Order: "created_at ASC, id ASC",
		Joins: []string{"Items"},
	})
	return orders, err
}

// ComputeSession recomputes the table's bill from the store on every call.
func (m *TableSessionManager) ComputeSession(ctx context.Context, tableID uint) (*Session, error) {
	const op = "compute session"
	if _, err := m.findTable(ctx, op, tableID, 0); err != nil {
		return nil, err
	}
	orders, err := m.openOrders(ctx, database.Eq("mesa_id", tableID))
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	session := &Session{TableID: tableID, Orders: orders, Total: decimal.Zero}
	for _, o := range orders {
		session.Total = session.Total.Add(o.Total)
		session.ItemCount += len(o.Items)
	}
	return session, nil
}

// CloseTable settles the bill. Every open order is moved to fechado first; the
// table is freed only when all of them were. Running it again finishes a
// previously interrupted close.
func (m *TableSessionManager) CloseTable(ctx context.Context, tableID uint) (*CloseResult, error) {
	const op = "close table"
	table, err := m.findTable(ctx, op, tableID, 0)
	if err != nil {
		return nil, err
	}
	orders, err := m.openOrders(ctx, database.Eq("mesa_id", tableID))
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	log := utils.InfoLogger.WithFields(logrus.Fields{"table_id": tableID, "restaurant_id": table.RestaurantID})
	result := &CloseResult{TableID: tableID, Total: decimal.Zero}
	for _, o := range orders {
		n, err := m.Store.Update(ctx, &models.Order{},
			[]database.Cond{
				database.Eq("id", o.ID),
				database.In("status", statusTokens(models.OpenOrderStatuses...)),
			},
			map[string]interface{}{"status": models.OrderStatusClosed})
		if err != nil {
			log.Warnf("closing order #%d failed after %d of %d: %v", o.ID, result.ClosedOrders, len(orders), err)
			if result.ClosedOrders == 0 {
				return result, persistenceErr(op, err)
			}
			return result, opErr(op, ErrPartialFailure,
				fmt.Errorf("closed %d of %d orders, table left %s: %w", result.ClosedOrders, len(orders), table.Status, err))
		}
		// zero rows: the order left the open set on another terminal
		if n > 0 {
			result.ClosedOrders++
			result.Total = result.Total.Add(o.Total)
		}
	}

	_, err = m.Store.Update(ctx, &models.Table{},
		[]database.Cond{database.Eq("id", tableID)},
		map[string]interface{}{"status": models.TableStatusFree})
	if err != nil {
		log.Warnf("orders closed but table not freed: %v", err)
		return result, opErr(op, ErrPartialFailure,
			fmt.Errorf("closed %d orders, table not freed: %w", result.ClosedOrders, err))
	}

	log.WithField("closed", result.ClosedOrders).Infof("table closed, total %s", utils.FormatCurrencyBRL(result.Total))
	return result, nil
}

// DeriveTableStatus is the status a table should show given its open orders.
// Kitchen work in progress always shows as occupied. With only pickups and
// deliveries left a free table becomes pending, otherwise the stored indicator stands.
func DeriveTableStatus(open []models.Order, current models.TableStatus) models.TableStatus {
	if len(open) == 0 {
		return models.TableStatusFree
	}
	if HasKitchenWork(open) {
		return models.TableStatusOccupied
	}
	if current == models.TableStatusFree {
		return models.TableStatusOrderPending
	}
	return current
}

// HasKitchenWork reports whether any order still waits on the kitchen.
func HasKitchenWork(orders []models.Order) bool {
	for _, o := range orders {
		if o.Status == models.OrderStatusNew || o.Status == models.OrderStatusInPreparation {
			return true
		}
	}
	return false
}

// ReconcileTable writes the derived status when the stored one drifted.
func (m *TableSessionManager) ReconcileTable(ctx context.Context, tableID uint) (models.TableStatus, error) {
	const op = "reconcile table"
	table, err := m.findTable(ctx, op, tableID, 0)
	if err != nil {
		return "", err
	}
	orders, err := m.openOrders(ctx, database.Eq("mesa_id", tableID))
	if err != nil {
		return "", persistenceErr(op, err)
	}
	derived := DeriveTableStatus(orders, table.Status)
	if derived == table.Status {
		return derived, nil
	}
	repaired, err := m.repair(ctx, table)
	if err != nil {
		return table.Status, persistenceErr(op, err)
	}
	return repaired, nil
}

// repair rewrites a drifted table. The open orders are read again inside the
// write's transaction so an order placed since the caller's read keeps the table busy.
func (m *TableSessionManager) repair(ctx context.Context, table *models.Table) (models.TableStatus, error) {
	derived := table.Status
	err := m.Store.Transaction(ctx, func(tx database.DataStore) error {
		open, err := openOrdersIn(ctx, tx, database.Eq("mesa_id", table.ID))
		if err != nil {
			return err
		}
		derived = DeriveTableStatus(open, table.Status)
		if derived == table.Status {
			return nil
		}
		_, err = tx.Update(ctx, &models.Table{},
			[]database.Cond{database.Eq("id", table.ID), database.Eq("status", table.Status)},
			map[string]interface{}{"status": derived})
		return err
	})
	if err != nil {
		return table.Status, err
	}
	if derived != table.Status {
		utils.InfoLogger.WithFields(logrus.Fields{"table_id": table.ID, "from": table.Status, "to": derived}).
			Info("table status reconciled")
	}
	return derived, nil
}

// Floor lists the restaurant's tables by number. Drifted tables are repaired
// while reading; a failed repair is logged and the derived status still shown.
func (m *TableSessionManager) Floor(ctx context.Context, restaurantID uint) ([]FloorTable, error) {
	const op = "floor"
	var tables []models.Table
	err := m.Store.Select(ctx, &tables, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID)},
		Order: "numero ASC",
	})
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	orders, err := m.openOrders(ctx, database.Eq("restaurante_id", restaurantID))
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	byTable := make(map[uint][]models.Order)
	for _, o := range orders {
		byTable[o.TableID] = append(byTable[o.TableID], o)
	}

	floor := make([]FloorTable, 0, len(tables))
	for i := range tables {
		t := &tables[i]
		open := byTable[t.ID]
		derived := DeriveTableStatus(open, t.Status)
		if derived != t.Status {
			repaired, err := m.repair(ctx, t)
			if err != nil {
				utils.ErrorLogger.Warnf("repair table %d: %v", t.ID, err)
				repaired = derived
			}
			t.Status = repaired
		}
		entry := FloorTable{Table: *t, OpenOrders: len(open), Total: decimal.Zero}
		for _, o := range open {
			entry.Total = entry.Total.Add(o.Total)
		}
		floor = append(floor, entry)
	}
	return floor, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DrinksOnlyNote is the default note of an order that skips the kitchen.
const DrinksOnlyNote = "🥤 Bebidas - Pronto para retirar"

// IdempotencyGuard reserves submission keys across processes. Keys are
// scoped by restaurant.
type IdempotencyGuard interface {
	Reserve(ctx context.Context, restaurantID uint, key string) (bool, error)
	Release(ctx context.Context, restaurantID uint, key string) error
}

// CartItem is one button press in the waiter's cart, already resolved against the menu.
type CartItem struct {
	MenuItemID *uint
	Name       string
	Category   models.MenuCategory
	Price      decimal.Decimal
	Note       string
}

type SubmitRequest struct {
	RestaurantID   uint
	TableID        uint
	WaiterID       uint
	Items          []CartItem
	Note           string
	IdempotencyKey string
}

// advances lists the only forward moves an order may make.
var advances = map[models.OrderStatus]models.OrderStatus{
	models.OrderStatusNew:           models.OrderStatusInPreparation,
	models.OrderStatusInPreparation: models.OrderStatusReady,
	models.OrderStatusReady:         models.OrderStatusDelivered,
}

// CanAdvance reports whether from -> to is a legal lifecycle step.
func CanAdvance(from, to models.OrderStatus) bool {
	next, ok := advances[from]
	return ok && next == to
}

type OrderEngine struct {
	Store database.DataStore
	Guard IdempotencyGuard
	Now   func() time.Time
}

func NewOrderEngine(store database.DataStore, guard IdempotencyGuard) *OrderEngine {
	return &OrderEngine{Store: store, Guard: guard, Now: time.Now}
}

func submissionErr(op string, err error) error {
	return opErr(op, ErrSubmissionFailed, fmt.Errorf("%w: %w", ErrPersistence, err))
}

// SubmitOrder persists a new order for a table. The order and its line items
// are written in one transaction; the table status follows after commit. When
// that last write fails the order is returned together with ErrPartialFailure.
func (e *OrderEngine) SubmitOrder(ctx context.Context, req SubmitRequest) (*models.Order, error) {
	const op = "submit order"

	if len(req.Items) == 0 {
		return nil, opErr(op, ErrEmptyCart, nil)
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, validationErr(op, "item %d has no name", i)
		}
		if item.Price.IsNegative() {
			return nil, validationErr(op, "item %q has a negative price", item.Name)
		}
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" {
		existing, err := e.findByKey(ctx, req.RestaurantID, key)
		if err != nil {
			return nil, submissionErr(op, err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	reserved, existing, err := e.reserve(ctx, req.RestaurantID, key)
	if err != nil || existing != nil {
		return existing, err
	}
	release := func() {
		if reserved {
			if err := e.Guard.Release(ctx, req.RestaurantID, key); err != nil {
				utils.ErrorLogger.Warnf("release idempotency key %s: %v", key, err)
			}
		}
	}

	var tables []models.Table
	err = e.Store.Select(ctx, &tables, database.Query{
		Where: []database.Cond{database.Eq("id", req.TableID), database.Eq("restaurante_id", req.RestaurantID)},
		Limit: 1,
	})
	if err != nil {
		release()
		return nil, submissionErr(op, err)
	}
	if len(tables) == 0 {
		release()
		return nil, opErr(op, ErrNotFound, fmt.Errorf("table %d", req.TableID))
	}

	order := buildOrder(req, key)

	err = e.Store.Transaction(ctx, func(tx database.DataStore) error {
		if err := tx.Insert(ctx, order); err != nil {
			return err
		}
		items := make([]models.OrderItem, len(req.Items))
		for i, item := range req.Items {
			items[i] = models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: item.MenuItemID,
				Name:       item.Name,
				Quantity:   1,
				UnitPrice:  item.Price,
				Note:       item.Note,
			}
		}
		if err := tx.Insert(ctx, &items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
	if err != nil {
		// a concurrent duplicate may have won the unique key
		if key != "" {
			if existing, lookupErr := e.findByKey(ctx, req.RestaurantID, key); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		release()
		return nil, submissionErr(op, err)
	}

	log := utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"table_id":      order.TableID,
		"status":        order.Status,
		"total":         order.Total.StringFixed(2),
	})

	tableStatus := e.submittedTableStatus(ctx, order)
	_, err = e.Store.Update(ctx, &models.Table{},
		[]database.Cond{database.Eq("id", req.TableID)},
		map[string]interface{}{"status": tableStatus})
	if err != nil {
		log.Warnf("order placed but table status not updated: %v", err)
		return order, opErr(op, ErrPartialFailure,
			fmt.Errorf("order #%d placed, table %d not marked %s: %w", order.ID, req.TableID, tableStatus, err))
	}

	log.Info("order submitted")
	return order, nil
}

// submittedTableStatus is the indicator a table gets after order is placed on it.
// Drinks-only orders mark it pending unless the kitchen is still working for it.
func (e *OrderEngine) submittedTableStatus(ctx context.Context, order *models.Order) models.TableStatus {
	if order.Status != models.OrderStatusReady {
		return models.TableStatusOccupied
	}
	var cooking []models.Order
	err := e.Store.Select(ctx, &cooking, database.Query{
		Where: []database.Cond{
			database.Eq("mesa_id", order.TableID),
			database.In("status", statusTokens(models.OrderStatusNew, models.OrderStatusInPreparation)),
		},
		Limit: 1,
	})
	if err != nil {
		// the floor read derives occupied again from the open orders
		utils.ErrorLogger.Warnf("check kitchen work on table %d: %v", order.TableID, err)
		return models.TableStatusOrderPending
	}
	if HasKitchenWork(cooking) {
		return models.TableStatusOccupied
	}
	return models.TableStatusOrderPending
}

// reserve claims key on the guard. A key already claimed resolves to the stored
// order when the first submission has committed, ErrDuplicateSubmission otherwise.
func (e *OrderEngine) reserve(ctx context.Context, restaurantID uint, key string) (bool, *models.Order, error) {
	const op = "submit order"
	if e.Guard == nil || key == "" {
		return false, nil, nil
	}
	ok, err := e.Guard.Reserve(ctx, restaurantID, key)
	if err != nil {
		// the unique index on the key still rejects a second row
		utils.ErrorLogger.Warnf("idempotency guard unavailable: %v", err)
		return false, nil, nil
	}
	if ok {
		return true, nil, nil
	}
	existing, err := e.findByKey(ctx, restaurantID, key)
	if err != nil {
		return false, nil, submissionErr(op, err)
	}
	if existing != nil {
		return false, existing, nil
	}
	return false, nil, opErr(op, ErrDuplicateSubmission, fmt.Errorf("key %s", key))
}

func buildOrder(req SubmitRequest, key string) *models.Order {
	drinksOnly := true
	total := decimal.Zero
	for _, item := range req.Items {
		total = total.Add(item.Price)
		if !item.Category.IsDrink() {
			drinksOnly = false
		}
	}

	order := &models.Order{
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		WaiterID:     req.WaiterID,
		Total:        total,
		Status:       models.OrderStatusNew,
	}
	note := strings.TrimSpace(req.Note)
	if drinksOnly {
		order.Status = models.OrderStatusReady
		if note == "" {
			note = DrinksOnlyNote
		}
	}
	if note != "" {
		order.Note = &note
	}
	if key != "" {
		order.IdempotencyKey = &key
	}
	return order
}

func (e *OrderEngine) findByKey(ctx context.Context, restaurantID uint, key string) (*models.Order, error) {
	var orders []models.Order
	err := e.Store.Select(ctx, &orders, database.Query{
		Where: []database.Cond{database.Eq("idempotency_key", key), database.Eq("restaurante_id", restaurantID)},
		Joins: []string{"Items"},
		Limit: 1,
	})
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return &orders[0], nil
}

// AdvanceStatus moves an order one step forward, provided it is still in from.
func (e *OrderEngine) AdvanceStatus(ctx context.Context, orderID uint, from, to models.OrderStatus) error {
	const op = "advance status"
	if !CanAdvance(from, to) {
		return opErr(op, ErrInvalidTransition, fmt.Errorf("%s -> %s", from, to))
	}
	return e.transition(ctx, op, orderID, from, to)
}

// MarkDelivered records that the waiter picked up a ready order.
func (e *OrderEngine) MarkDelivered(ctx context.Context, orderID uint) error {
	return e.transition(ctx, "mark delivered", orderID, models.OrderStatusReady, models.OrderStatusDelivered)
}

// CancelOrder withdraws an order that has not been delivered yet.
func (e *OrderEngine) CancelOrder(ctx context.Context, orderID uint, from models.OrderStatus) error {
	const op = "cancel order"
	switch from {
	case models.OrderStatusNew, models.OrderStatusInPreparation, models.OrderStatusReady:
	default:
		return opErr(op, ErrInvalidTransition, fmt.Errorf("%s -> %s", from, models.OrderStatusCancelled))
	}
	return e.transition(ctx, op, orderID, from, models.OrderStatusCancelled)
}

func (e *OrderEngine) transition(ctx context.Context, op string, orderID uint, from, to models.OrderStatus) error {
	patch := map[string]interface{}{"status": to}
	if to == models.OrderStatusInPreparation {
		patch["inicio_preparo"] = e.Now()
	}

	n, err := e.Store.Update(ctx, &models.Order{},
		[]database.Cond{database.Eq("id", orderID), database.Eq("status", from)}, patch)
	if err != nil {
		return persistenceErr(op, err)
	}
	if n == 0 {
		var found []models.Order
		if err := e.Store.Select(ctx, &found, database.Query{Where: []database.Cond{database.Eq("id", orderID)}, Limit: 1}); err != nil {
			return persistenceErr(op, err)
		}
		if len(found) == 0 {
			return opErr(op, ErrNotFound, fmt.Errorf("order %d", orderID))
		}
		return opErr(op, ErrInvalidTransition,
			fmt.Errorf("order %d is %s, not %s", orderID, found[0].Status, from))
	}

	utils.InfoLogger.WithFields(logrus.Fields{"order_id": orderID, "from": from, "to": to}).Info("order status changed")
	return nil
}

// Order loads one order of the restaurant with its items, table and waiter.
func (e *OrderEngine) Order(ctx context.Context, restaurantID, orderID uint) (*models.Order, error) {
	const op = "get order"
	var orders []models.Order
	err := e.Store.Select(ctx, &orders, database.Query{
		Where: []database.Cond{database.Eq("id", orderID), database.Eq("restaurante_id", restaurantID)},
		Joins: []string{"Items", "Table", "Waiter"},
		Limit: 1,
	})
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	if len(orders) == 0 {
		return nil, opErr(op, ErrNotFound, fmt.Errorf("order %d", orderID))
	}
	return &orders[0], nil
}

// KitchenTicket is an order as the kitchen display shows it.
type KitchenTicket struct {
	models.Order
	ElapsedMinutes int  `json:"elapsed_minutes"`
	Late           bool `json:"late"`
}

type KitchenQueue struct {
	New           []KitchenTicket `json:"new"`
	InPreparation []KitchenTicket `json:"in_preparation"`
}

// KitchenQueue returns the orders waiting on the kitchen, oldest first.
func (e *OrderEngine) KitchenQueue(ctx context.Context, restaurantID uint) (*KitchenQueue, error) {
	var orders []models.Order
	err := e.Store.Select(ctx, &orders, database.Query{
		Where: []database.Cond{
			database.Eq("restaurante_id", restaurantID),
			database.In("status", statusTokens(models.OrderStatusNew, models.OrderStatusInPreparation)),
		},
		Order: "created_at ASC, id ASC",
		Joins: []string{"Items", "Table", "Waiter"},
	})
	if err != nil {
		return nil, persistenceErr("kitchen queue", err)
	}

	now := e.Now()
	queue := &KitchenQueue{New: []KitchenTicket{}, InPreparation: []KitchenTicket{}}
	for _, o := range orders {
		ticket := KitchenTicket{
			Order:          o,
			ElapsedMinutes: int(o.ElapsedSince(now) / time.Minute),
			Late:           o.IsLate(now),
		}
		if o.Status == models.OrderStatusNew {
			queue.New = append(queue.New, ticket)
		} else {
			queue.InPreparation = append(queue.InPreparation, ticket)
		}
	}
	return queue, nil
}

// WaiterOrders returns the waiter's orders that are cooking or ready, newest first.
func (e *OrderEngine) WaiterOrders(ctx context.Context, restaurantID, waiterID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := e.Store.Select(ctx, &orders, database.Query{
		Where: []database.Cond{
			database.Eq("restaurante_id", restaurantID),
			database.Eq("garcom_id", waiterID),
			database.In("status", statusTokens(models.OrderStatusInPreparation, models.OrderStatusReady)),
		},
		Order: "created_at DESC, id DESC",
		Joins: []string{"Items", "Table"},
	})
	if err != nil {
		return nil, persistenceErr("waiter orders", err)
	}
	return orders, nil
}

type MenuSection struct {
	Category models.MenuCategory `json:"category"`
	Items    []models.MenuItem   `json:"items"`
}

// Menu returns the available items grouped by category in display order.
func (e *OrderEngine) Menu(ctx context.Context, restaurantID uint) ([]MenuSection, error) {
	var items []models.MenuItem
	err := e.Store.Select(ctx, &items, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID), database.Eq("disponivel", true)},
		Order: "nome ASC",
	})
	if err != nil {
		return nil, persistenceErr("menu", err)
	}

	byCategory := make(map[models.MenuCategory][]models.MenuItem)
	for _, item := range items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	sections := []MenuSection{}
	for _, cat := range models.MenuCategories {
		if len(byCategory[cat]) > 0 {
			sections = append(sections, MenuSection{Category: cat, Items: byCategory[cat]})
		}
	}
	return sections, nil
}

// ResolveCart snapshots menu items into cart entries, one per id, keeping order
// and repeats.
func (e *OrderEngine) ResolveCart(ctx context.Context, restaurantID uint, menuItemIDs []uint) ([]CartItem, error) {
	const op = "resolve cart"
	if len(menuItemIDs) == 0 {
		return nil, opErr(op, ErrEmptyCart, nil)
	}

	var items []models.MenuItem
	err := e.Store.Select(ctx, &items, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID), database.In("id", menuItemIDs)},
	})
	if err != nil {
		return nil, persistenceErr(op, err)
	}
	byID := make(map[uint]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	cart := make([]CartItem, 0, len(menuItemIDs))
	for _, id := range menuItemIDs {
		item, ok := byID[id]
		if !ok || !item.Available {
			return nil, validationErr(op, "menu item %d is not available", id)
		}
		menuID := item.ID
		cart = append(cart, CartItem{
			MenuItemID: &menuID,
			Name:       item.Name,
			Category:   item.Category,
			Price:      item.Price,
		})
	}
	return cart, nil
}

func statusTokens(statuses ...models.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

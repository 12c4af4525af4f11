package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

// IdempotencyHeader carries the client's submission key.
const IdempotencyHeader = "Idempotency-Key"

type OrderController struct {
	Engine *services.OrderEngine
	Tables *services.TableSessionManager
}

func NewOrderController(engine *services.OrderEngine, tables *services.TableSessionManager) *OrderController {
	return &OrderController{Engine: engine, Tables: tables}
}

// CreateOrder submits the waiter's cart for a table.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		Items []struct {
			MenuItemID uint `json:"menu_item_id" binding:"required"`
		} `json:"items"`
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	ids := make([]uint, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.MenuItemID
	}
	cart, err := oc.Engine.ResolveCart(ctx, p.RestaurantID, ids)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}

	order, err := oc.Engine.SubmitOrder(ctx, services.SubmitRequest{
		RestaurantID:   p.RestaurantID,
		TableID:        tableID,
		WaiterID:       p.StaffID,
		Items:          cart,
		Note:           req.Note,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		respondServiceError(c, err, order)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// ownedOrder loads the order and makes sure it belongs to the caller's restaurant.
func (oc *OrderController) ownedOrder(c *gin.Context) (*models.Order, bool) {
	p, ok := principal(c)
	if !ok {
		return nil, false
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return nil, false
	}
	order, err := oc.Engine.Order(c.Request.Context(), p.RestaurantID, orderID)
	if err != nil {
		respondServiceError(c, err, nil)
		return nil, false
	}
	return order, true
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, ok := oc.ownedOrder(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// AdvanceOrder moves an order one step, guarded by the status the client saw.
func (oc *OrderController) AdvanceOrder(c *gin.Context) {
	order, ok := oc.ownedOrder(c)
	if !ok {
		return
	}
	var req struct {
		From models.OrderStatus `json:"from" binding:"required"`
		To   models.OrderStatus `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !req.From.Valid() || !req.To.Valid() {
		badRequest(c, errors.New("unknown order status"))
		return
	}

	if err := oc.Engine.AdvanceStatus(c.Request.Context(), order.ID, req.From, req.To); err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", gin.H{"order_id": order.ID, "status": req.To})
}

func (oc *OrderController) DeliverOrder(c *gin.Context) {
	order, ok := oc.ownedOrder(c)
	if !ok {
		return
	}
	if err := oc.Engine.MarkDelivered(c.Request.Context(), order.ID); err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order delivered", gin.H{"order_id": order.ID, "status": models.OrderStatusDelivered})
}

// CancelOrder cancels from the status in the body, or from the current one
// when the body names none. The table indicator is recomputed afterwards.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	order, ok := oc.ownedOrder(c)
	if !ok {
		return
	}
	var req struct {
		From models.OrderStatus `json:"from"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	from := req.From
	if from == "" {
		from = order.Status
	}

	ctx := c.Request.Context()
	if err := oc.Engine.CancelOrder(ctx, order.ID, from); err != nil {
		respondServiceError(c, err, nil)
		return
	}
	if oc.Tables != nil {
		if _, err := oc.Tables.ReconcileTable(ctx, order.TableID); err != nil {
			utils.ErrorLogger.Warnf("reconcile table %d after cancel: %v", order.TableID, err)
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", gin.H{"order_id": order.ID, "status": models.OrderStatusCancelled})
}

// GetKitchenDisplay returns the kitchen queue.
func (oc *OrderController) GetKitchenDisplay(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	queue, err := oc.Engine.KitchenQueue(c.Request.Context(), p.RestaurantID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", queue)
}

// GetMyOrders returns the caller's orders that are cooking or ready.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	orders, err := oc.Engine.WaiterOrders(c.Request.Context(), p.RestaurantID, p.StaffID)
	if err != nil {
		respondServiceError(c, err, nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiter orders", orders)
}

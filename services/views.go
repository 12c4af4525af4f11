package services

import (
	"context"
	"fmt"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
)

const (
	ViewKitchen = "kitchen"
	ViewWaiter  = "waiter"
	ViewFloor   = "floor"

	// AlertViewBuffer is the event backlog of views that raise alerts; a dropped
	// event still refreshes on the next tick but its alert is gone.
	AlertViewBuffer = 256
)

// ViewRefresh holds the fallback refresh period of each live view.
type ViewRefresh struct {
	Kitchen time.Duration
	Waiter  time.Duration
	Floor   time.Duration
}

func DefaultViewRefresh() ViewRefresh {
	return ViewRefresh{Kitchen: 30 * time.Second, Waiter: 15 * time.Second, Floor: 30 * time.Second}
}

// Views builds the live view sessions served to terminals.
type Views struct {
	Orders  *OrderEngine
	Tables  *TableSessionManager
	Refresh ViewRefresh
}

// ViewRoles lists who may open each view.
var ViewRoles = map[string][]models.Role{
	ViewKitchen: {models.RoleKitchen, models.RoleAdmin},
	ViewWaiter:  {models.RoleWaiter, models.RoleAdmin},
	ViewFloor:   {models.RoleWaiter, models.RoleAdmin},
}

// Config returns the view named name for one staff member. Every view only
// sees its own restaurant.
func (v *Views) Config(name string, restaurantID, staffID uint) (realtime.ViewConfig, error) {
	filter := realtime.Filter{RestaurantID: restaurantID}
	orders := models.Order{}.TableName()

	switch name {
	case ViewKitchen:
		return realtime.ViewConfig{
			Name:     name,
			Tables:   []string{orders},
			Mask:     realtime.MaskAll,
			Filter:   filter,
			Fallback: v.Refresh.Kitchen,
			Buffer:   AlertViewBuffer,
			Refresh: func(ctx context.Context) (interface{}, error) {
				return v.Orders.KitchenQueue(ctx, restaurantID)
			},
			Alerts: realtime.KitchenAlerts,
		}, nil
	case ViewWaiter:
		return realtime.ViewConfig{
			Name:     name,
			Tables:   []string{orders},
			Mask:     realtime.MaskInsert | realtime.MaskUpdate,
			Filter:   filter,
			Fallback: v.Refresh.Waiter,
			Buffer:   AlertViewBuffer,
			Refresh: func(ctx context.Context) (interface{}, error) {
				return v.Orders.WaiterOrders(ctx, restaurantID, staffID)
			},
			Alerts: realtime.WaiterAlerts,
		}, nil
	case ViewFloor:
		return realtime.ViewConfig{
			Name:     name,
			Tables:   []string{models.Table{}.TableName(), orders},
			Mask:     realtime.MaskAll,
			Filter:   filter,
			Fallback: v.Refresh.Floor,
			Refresh: func(ctx context.Context) (interface{}, error) {
				return v.Tables.Floor(ctx, restaurantID)
			},
		}, nil
	}
	return realtime.ViewConfig{}, opErr("open view", ErrNotFound, fmt.Errorf("view %q", name))
}

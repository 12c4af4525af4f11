package realtime

import (
	"fmt"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
)

type AlertKind string

const (
	AlertSound        AlertKind = "sound"
	AlertNotification AlertKind = "notification"
)

// Alert is an audible or visual cue the terminal should raise.
type Alert struct {
	Kind    AlertKind `json:"kind"`
	Name    string    `json:"name,omitempty"`
	OrderID uint      `json:"order_id"`
	Title   string    `json:"title,omitempty"`
	Body    string    `json:"body,omitempty"`
}

const (
	SoundNewOrder   = "new_order"
	SoundOrderReady = "order_ready"
)

// NotifiedSet records order ids that already raised a ready alert. It is owned by
// one view and lives as long as that view.
type NotifiedSet map[uint]struct{}

func (s NotifiedSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

var ordersTable = models.Order{}.TableName()

// KitchenAlerts rings the kitchen when a new order row is inserted.
func KitchenAlerts(ev Event, _ NotifiedSet) []Alert {
	if ev.Table != ordersTable || ev.Action != ActionInsert {
		return nil
	}
	return []Alert{{Kind: AlertSound, Name: SoundNewOrder, OrderID: ev.RecordID}}
}

// WaiterAlerts raises a sound and a notification the first time an order moves
// into pronto. Redelivered transitions for an order already in notified are ignored.
func WaiterAlerts(ev Event, notified NotifiedSet) []Alert {
	if ev.Table != ordersTable || ev.Action != ActionUpdate {
		return nil
	}
	if !ReadyTransition(ev.OldStatus, ev.NewStatus) || notified.Has(ev.RecordID) {
		return nil
	}
	notified[ev.RecordID] = struct{}{}

	return []Alert{
		{Kind: AlertSound, Name: SoundOrderReady, OrderID: ev.RecordID},
		{
			Kind:    AlertNotification,
			OrderID: ev.RecordID,
			Title:   "Pedido Pronto!",
			Body:    fmt.Sprintf("Pedido #%d está pronto para retirar!", ev.RecordID),
		},
	}
}

// ReadyTransition reports whether a status change is a move into pronto.
func ReadyTransition(prev, next string) bool {
	ready := string(models.OrderStatusReady)
	return next == ready && prev != ready
}

package realtime

import (
	"time"

	"github.com/google/uuid"
)

// Action is the kind of write that produced an event.
type Action string

const (
	ActionInsert Action = "INSERT"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// EventMask selects which actions a subscription receives.
type EventMask uint8

const (
	MaskInsert EventMask = 1 << iota
	MaskUpdate
	MaskDelete

	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

// Has reports whether the mask accepts the action.
func (m EventMask) Has(a Action) bool {
	switch a {
	case ActionInsert:
		return m&MaskInsert != 0
	case ActionUpdate:
		return m&MaskUpdate != 0
	case ActionDelete:
		return m&MaskDelete != 0
	}
	return false
}

// Event is one change on a store table. OldStatus is empty for inserts.
type Event struct {
	Table        string    `json:"table"`
	Action       Action    `json:"action"`
	RecordID     uint      `json:"record_id"`
	RestaurantID uint      `json:"restaurant_id"`
	OldStatus    string    `json:"old_status,omitempty"`
	NewStatus    string    `json:"new_status,omitempty"`
	ChangedAt    time.Time `json:"changed_at"`
}

// Filter narrows a subscription. A zero RestaurantID matches every restaurant.
type Filter struct {
	RestaurantID uint
}

func (f Filter) Match(ev Event) bool {
	return f.RestaurantID == 0 || f.RestaurantID == ev.RestaurantID
}

// Handler receives events. It runs on the publisher's goroutine and must not block.
type Handler func(Event)

type SubscriptionID = uuid.UUID

// Subscriber is the subscribe/unsubscribe half of the data store.
type Subscriber interface {
	Subscribe(table string, mask EventMask, filter Filter, onEvent Handler) (SubscriptionID, error)
	Unsubscribe(id SubscriptionID)
}

package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNilHandler = errors.New("realtime: nil handler")

type subscription struct {
	table   string
	mask    EventMask
	filter  Filter
	handler Handler
}

// Feed fans published events out to matching subscriptions.
type Feed struct {
	mu   sync.RWMutex
	subs map[SubscriptionID]subscription
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[SubscriptionID]subscription)}
}

func (f *Feed) Subscribe(table string, mask EventMask, filter Filter, onEvent Handler) (SubscriptionID, error) {
	if onEvent == nil {
		return uuid.Nil, ErrNilHandler
	}
	id := uuid.New()

	f.mu.Lock()
	f.subs[id] = subscription{table: table, mask: mask, filter: filter, handler: onEvent}
	f.mu.Unlock()
	return id, nil
}

func (f *Feed) Unsubscribe(id SubscriptionID) {
	f.mu.Lock()
	delete(f.subs, id)
	f.mu.Unlock()
}

// Publish delivers ev to every matching subscription and returns how many received it.
func (f *Feed) Publish(ev Event) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	delivered := 0
	for _, s := range f.subs {
		if s.table != ev.Table || !s.mask.Has(ev.Action) || !s.filter.Match(ev) {
			continue
		}
		s.handler(ev)
		delivered++
	}
	return delivered
}

// Len returns the number of live subscriptions.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

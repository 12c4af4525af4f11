package realtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/sirupsen/logrus"
)

const defaultEventBuffer = 32

// Sink receives what a view produces: full read-model snapshots and alerts.
type Sink interface {
	Snapshot(view string, data interface{}) error
	Alert(view string, alert Alert) error
}

// ViewConfig describes one live view of the store.
type ViewConfig struct {
	Name     string
	Tables   []string
	Mask     EventMask
	Filter   Filter
	Fallback time.Duration
	Buffer   int

	// Refresh re-reads the whole read model.
	Refresh func(ctx context.Context) (interface{}, error)
	// Alerts maps an event to alerts. May be nil.
	Alerts func(ev Event, notified NotifiedSet) []Alert
}

// RunView keeps sink in sync with the store until ctx is done or the sink fails.
// Every event triggers a full refresh; the fallback ticker refreshes regardless of
// subscription health so dropped events are eventually covered.
func RunView(ctx context.Context, sub Subscriber, cfg ViewConfig, sink Sink) error {
	if cfg.Refresh == nil {
		return errors.New("realtime: view has no refresh function")
	}
	size := cfg.Buffer
	if size <= 0 {
		size = defaultEventBuffer
	}
	log := utils.InfoLogger.WithFields(logrus.Fields{"view": cfg.Name, "restaurant_id": cfg.Filter.RestaurantID})

	events := make(chan Event, size)
	var ids []SubscriptionID
	defer func() {
		for _, id := range ids {
			sub.Unsubscribe(id)
		}
	}()

	for _, table := range cfg.Tables {
		id, err := sub.Subscribe(table, cfg.Mask, cfg.Filter, func(ev Event) {
			select {
			case events <- ev:
			default:
				log.Warnf("event buffer full, dropping %s %s #%d and its alerts", ev.Table, ev.Action, ev.RecordID)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", table, err)
		}
		ids = append(ids, id)
	}

	var fallback <-chan time.Time
	if cfg.Fallback > 0 {
		ticker := time.NewTicker(cfg.Fallback)
		defer ticker.Stop()
		fallback = ticker.C
	}

	v := &view{cfg: cfg, sink: sink, notified: make(NotifiedSet), log: log}
	if err := v.refresh(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := v.alert(ev); err != nil {
				return err
			}
			// coalesce a burst into one refresh
		drain:
			for {
				select {
				case ev := <-events:
					if err := v.alert(ev); err != nil {
						return err
					}
				default:
					break drain
				}
			}
			if err := v.refresh(ctx); err != nil {
				return err
			}
		case <-fallback:
			if err := v.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

type view struct {
	cfg      ViewConfig
	sink     Sink
	notified NotifiedSet
	log      *logrus.Entry
}

func (v *view) alert(ev Event) error {
	if v.cfg.Alerts == nil {
		return nil
	}
	for _, a := range v.cfg.Alerts(ev, v.notified) {
		if err := v.sink.Alert(v.cfg.Name, a); err != nil {
			return fmt.Errorf("deliver alert: %w", err)
		}
	}
	return nil
}

// refresh tolerates read failures; the next event or fallback tick tries again.
func (v *view) refresh(ctx context.Context) error {
	data, err := v.cfg.Refresh(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		v.log.Warnf("refresh failed: %v", err)
		return nil
	}
	if err := v.sink.Snapshot(v.cfg.Name, data); err != nil {
		return fmt.Errorf("deliver snapshot: %w", err)
	}
	return nil
}

package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultCallTimeout  = 5 * time.Second
	DefaultReadRetries  = 2
	DefaultRetryBackoff = 200 * time.Millisecond
)

type Options struct {
	// CallTimeout bounds every store call; zero disables it.
	CallTimeout time.Duration
	// ReadRetries is how many extra attempts a failed Select gets. Writes are never retried.
	ReadRetries  int
	RetryBackoff time.Duration
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		CallTimeout:  DefaultCallTimeout,
		ReadRetries:  DefaultReadRetries,
		RetryBackoff: DefaultRetryBackoff,
		Now:          time.Now,
	}
}

// GormStore implements DataStore on gorm. Writes to tracked tables also insert a
// db_changes row in the same transaction; the change monitor publishes those rows
// to the feed that Subscribe registers on.
type GormStore struct {
	db   *gorm.DB
	feed *realtime.Feed
	opts Options
	inTx bool
}

func NewGormStore(db *gorm.DB, feed *realtime.Feed, opts Options) *GormStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	return &GormStore{db: db, feed: feed, opts: opts}
}

// DB exposes the underlying handle for migrations and the change monitor.
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.inTx || s.opts.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.CallTimeout)
}

// write runs fn in its own transaction, or directly when the store is already one.
func (s *GormStore) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.inTx {
		return fn(s.db.WithContext(ctx))
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *GormStore) Insert(ctx context.Context, record interface{}) error {
	return s.write(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(record).Error; err != nil {
			return err
		}
		for _, t := range trackedRecords(record) {
			id, restaurantID, status := t.ChangeKey()
			change := newChange(t.TableName(), id, restaurantID, realtime.ActionInsert, "", status, s.opts.Now())
			if err := tx.Create(&change).Error; err != nil {
				return fmt.Errorf("record change: %w", err)
			}
		}
		return nil
	})
}

type changeProbe struct {
	ID           uint   `gorm:"column:id"`
	RestaurantID uint   `gorm:"column:restaurante_id"`
	Status       string `gorm:"column:status"`
}

func (s *GormStore) Update(ctx context.Context, model interface{}, where []Cond, patch map[string]interface{}) (int64, error) {
	if len(where) == 0 {
		return 0, ErrUnboundedUpdate
	}

	var affected int64
	err := s.write(ctx, func(tx *gorm.DB) error {
		t, tracked := model.(Tracked)
		if !tracked {
			q, err := applyConds(tx.Model(model), where)
			if err != nil {
				return err
			}
			res := q.Updates(patch)
			affected = res.RowsAffected
			return res.Error
		}

		probe, err := applyConds(tx.Model(model), where)
		if err != nil {
			return err
		}
		var before []changeProbe
		if err := probe.Select("id", "restaurante_id", "status").Scan(&before).Error; err != nil {
			return err
		}
		if len(before) == 0 {
			return nil
		}

		ids := make([]uint, len(before))
		for i, row := range before {
			ids[i] = row.ID
		}
		// keep the caller's conditions so a concurrent change between probe and update is not overwritten
		q, err := applyConds(tx.Model(model).Where("id IN ?", ids), where)
		if err != nil {
			return err
		}
		res := q.Updates(patch)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected

		next, hasStatus := patch["status"]
		if affected < int64(len(before)) {
			// some probed rows changed underneath; record only the ones this update reached
			if before, err = s.updatedRows(tx, model, where, ids, before, next, hasStatus); err != nil {
				return err
			}
		}
		now := s.opts.Now()
		for _, row := range before {
			newStatus := row.Status
			if hasStatus {
				newStatus = fmt.Sprint(next)
			}
			change := newChange(t.TableName(), row.ID, row.RestaurantID, realtime.ActionUpdate, row.Status, newStatus, now)
			if err := tx.Create(&change).Error; err != nil {
				return fmt.Errorf("record change: %w", err)
			}
		}
		return nil
	})
	return affected, err
}

func (s *GormStore) updatedRows(tx *gorm.DB, model interface{}, where []Cond, ids []uint, before []changeProbe, next interface{}, hasStatus bool) ([]changeProbe, error) {
	q := tx.Model(model).Where("id IN ?", ids)
	if hasStatus {
		q = q.Where("status = ?", next)
	} else {
		var err error
		if q, err = applyConds(q, where); err != nil {
			return nil, err
		}
	}
	var after []uint
	if err := q.Pluck("id", &after).Error; err != nil {
		return nil, err
	}
	reached := make(map[uint]bool, len(after))
	for _, id := range after {
		reached[id] = true
	}
	kept := before[:0]
	for _, row := range before {
		if reached[row.ID] {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (s *GormStore) Select(ctx context.Context, dest interface{}, q Query) error {
	attempts := 1
	if !s.inTx {
		attempts += s.opts.ReadRetries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = s.selectOnce(ctx, dest, q)
		if err == nil || errors.Is(err, errBadOperator) || ctx.Err() != nil {
			return err
		}
		if attempt == attempts {
			break
		}
		utils.InfoLogger.Warnf("select attempt %d/%d failed: %v", attempt, attempts, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
	return err
}

func (s *GormStore) selectOnce(ctx context.Context, dest interface{}, q Query) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	db := s.db.WithContext(ctx)
	for _, join := range q.Joins {
		db = db.Preload(join)
	}
	db, err := applyConds(db, q.Where)
	if err != nil {
		return err
	}
	if q.Order != "" {
		db = db.Order(q.Order)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	return db.Find(dest).Error
}

func (s *GormStore) Upsert(ctx context.Context, record interface{}, conflictKey ...string) error {
	if len(conflictKey) == 0 {
		return ErrNoConflictKey
	}
	cols := make([]clause.Column, len(conflictKey))
	for i, key := range conflictKey {
		cols[i] = clause.Column{Name: key}
	}
	return s.write(ctx, func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{Columns: cols, UpdateAll: true}).
			Create(record).Error
	})
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx DataStore) error) error {
	if s.inTx {
		return fn(s)
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, feed: s.feed, opts: s.opts, inTx: true})
	})
}

func (s *GormStore) Subscribe(table string, mask realtime.EventMask, filter realtime.Filter, onEvent realtime.Handler) (realtime.SubscriptionID, error) {
	if s.feed == nil {
		return realtime.SubscriptionID{}, ErrNoFeed
	}
	return s.feed.Subscribe(table, mask, filter, onEvent)
}

func (s *GormStore) Unsubscribe(id realtime.SubscriptionID) {
	if s.feed != nil {
		s.feed.Unsubscribe(id)
	}
}

func newChange(table string, id, restaurantID uint, action realtime.Action, oldStatus, newStatus string, at time.Time) models.DBChange {
	return models.DBChange{
		Source:       table,
		RecordID:     id,
		RestaurantID: restaurantID,
		ActionType:   string(action),
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		ChangedAt:    at,
	}
}

// trackedRecords returns the Tracked values in record, which may be a single
// model or a slice of them.
func trackedRecords(record interface{}) []Tracked {
	if t, ok := record.(Tracked); ok {
		return []Tracked{t}
	}
	v := reflect.Indirect(reflect.ValueOf(record))
	if v.Kind() != reflect.Slice {
		return nil
	}
	var out []Tracked
	for i := 0; i < v.Len(); i++ {
		if t, ok := v.Index(i).Interface().(Tracked); ok {
			out = append(out, t)
		}
	}
	return out
}

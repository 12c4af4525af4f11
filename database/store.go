package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"gorm.io/gorm"
)

var (
	ErrUnboundedUpdate = errors.New("database: update without conditions")
	ErrNoConflictKey   = errors.New("database: upsert needs a conflict key")
	ErrNoFeed          = errors.New("database: store has no change feed")
	errBadOperator     = errors.New("database: unsupported operator")
)

// DataStore is the narrow view of the relational store the order core depends on.
type DataStore interface {
	// Insert creates one record or a slice of records.
	Insert(ctx context.Context, record interface{}) error
	// Update applies patch (column -> value) to every row of model's table matching where.
	Update(ctx context.Context, model interface{}, where []Cond, patch map[string]interface{}) (int64, error)
	// Select loads rows into dest (a pointer to a slice).
	Select(ctx context.Context, dest interface{}, q Query) error
	// Upsert inserts record or, on conflict over conflictKey, updates it.
	Upsert(ctx context.Context, record interface{}, conflictKey ...string) error
	// Transaction runs fn against a store bound to a single transaction.
	Transaction(ctx context.Context, fn func(tx DataStore) error) error

	realtime.Subscriber
}

// Tracked models have their writes captured for the change feed.
type Tracked interface {
	TableName() string
	ChangeKey() (id uint, restaurantID uint, status string)
}

// Cond is one column predicate. Column names come from code, never from input.
type Cond struct {
	Column string
	Op     string
	Value  interface{}
}

func Eq(column string, value interface{}) Cond  { return Cond{Column: column, Op: "=", Value: value} }
func Neq(column string, value interface{}) Cond { return Cond{Column: column, Op: "<>", Value: value} }
func In(column string, values interface{}) Cond {
	return Cond{Column: column, Op: "IN", Value: values}
}
func Gte(column string, value interface{}) Cond { return Cond{Column: column, Op: ">=", Value: value} }
func Lt(column string, value interface{}) Cond  { return Cond{Column: column, Op: "<", Value: value} }

// Query describes a read. Joins are association names loaded alongside each row.
type Query struct {
	Where []Cond
	Order string
	Joins []string
	Limit int
}

func applyConds(db *gorm.DB, where []Cond) (*gorm.DB, error) {
	for _, c := range where {
		switch c.Op {
		case "=", "<>", ">=", "<", "<=", ">":
			db = db.Where(fmt.Sprintf("%s %s ?", c.Column, c.Op), c.Value)
		case "IN":
			db = db.Where(fmt.Sprintf("%s IN ?", c.Column), c.Value)
		default:
			return nil, fmt.Errorf("%w: %q", errBadOperator, c.Op)
		}
	}
	return db, nil
}

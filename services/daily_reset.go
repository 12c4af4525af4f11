package services

import (
	"context"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/database"
	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"github.com/sirupsen/logrus"
)

const DefaultTimezone = "America/Sao_Paulo"

type ResetOutcome struct {
	Ran      bool  `json:"ran"`
	Archived int64 `json:"archived"`
}

// DailyResetService archives the previous days' closed orders once per calendar day.
type DailyResetService struct {
	Store    database.DataStore
	Now      func() time.Time
	Location *time.Location
}

func NewDailyResetService(store database.DataStore, loc *time.Location) *DailyResetService {
	if loc == nil {
		loc = time.Local
	}
	return &DailyResetService{Store: store, Now: time.Now, Location: loc}
}

// LoadLocation resolves name, falling back to DefaultTimezone and then UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		utils.ErrorLogger.Warnf("unknown timezone %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

func (s *DailyResetService) due(last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	y, m, d := now.In(s.Location).Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.Location)
	return last.Before(midnight)
}

// Check runs the archival when the last reset happened before today's local midnight.
func (s *DailyResetService) Check(ctx context.Context, restaurantID uint) (*ResetOutcome, error) {
	const op = "daily reset"

	var configs []models.RestaurantConfig
	err := s.Store.Select(ctx, &configs, database.Query{
		Where: []database.Cond{database.Eq("restaurante_id", restaurantID)},
		Limit: 1,
	})
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	now := s.Now()
	var last *time.Time
	if len(configs) > 0 {
		last = configs[0].LastReset
	}
	if !s.due(last, now) {
		return &ResetOutcome{}, nil
	}

	archived, err := s.Store.Update(ctx, &models.Order{},
		[]database.Cond{
			database.Eq("restaurante_id", restaurantID),
			database.Eq("status", models.OrderStatusClosed),
		},
		map[string]interface{}{"status": models.OrderStatusArchived})
	if err != nil {
		return nil, persistenceErr(op, err)
	}

	if err := s.Store.Upsert(ctx, &models.RestaurantConfig{RestaurantID: restaurantID, LastReset: &now}, "restaurante_id"); err != nil {
		return &ResetOutcome{Ran: true, Archived: archived}, persistenceErr(op, err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{"restaurant_id": restaurantID, "archived": archived}).Info("daily reset done")
	return &ResetOutcome{Ran: true, Archived: archived}, nil
}

// EnsureDailyReset runs Check and never fails the caller.
func (s *DailyResetService) EnsureDailyReset(ctx context.Context, restaurantID uint) {
	if _, err := s.Check(ctx, restaurantID); err != nil {
		utils.ErrorLogger.WithField("restaurant_id", restaurantID).Errorf("daily reset failed: %v", err)
	}
}

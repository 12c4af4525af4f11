package services

import (
	"context"
	"time"

	"github.com/leonardo27oliveira02-spec/garccom-app/models"
	"github.com/leonardo27oliveira02-spec/garccom-app/realtime"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
	"gorm.io/gorm"
)

// ChangeMonitor drains the db_changes log and publishes each row to the feed.
type ChangeMonitor struct {
	DB        *gorm.DB
	Feed      *realtime.Feed
	Interval  time.Duration
	BatchSize int
	// Retention is how long processed rows are kept; zero keeps them forever.
	Retention time.Duration
}

func NewChangeMonitor(db *gorm.DB, feed *realtime.Feed) *ChangeMonitor {
	return &ChangeMonitor{
		DB:        db,
		Feed:      feed,
		Interval:  1 * time.Second,
		BatchSize: 100,
		Retention: 24 * time.Hour,
	}
}

// Run polls until ctx is cancelled.
func (cm *ChangeMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(cm.Interval)
	defer ticker.Stop()
	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := cm.Poll(ctx); err != nil && ctx.Err() == nil {
				utils.ErrorLogger.Errorf("change monitor: %v", err)
			}
		case <-prune.C:
			if _, err := cm.Prune(ctx, time.Now()); err != nil && ctx.Err() == nil {
				utils.ErrorLogger.Errorf("change monitor prune: %v", err)
			}
		}
	}
}

// Poll claims one batch of unprocessed changes and, after the claim commits,
// publishes them in write order.
func (cm *ChangeMonitor) Poll(ctx context.Context) (int, error) {
	var changes []models.DBChange

	err := cm.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("processed = ?", false).
			Order("id ASC").
			Limit(cm.BatchSize).
			Find(&changes).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		ids := make([]uint, len(changes))
		for i, c := range changes {
			ids[i] = c.ID
		}
		return tx.Model(&models.DBChange{}).Where("id IN ?", ids).Update("processed", true).Error
	})
	if err != nil {
		return 0, err
	}

	for _, c := range changes {
		delivered := cm.Feed.Publish(realtime.Event{
			Table:        c.Source,
			Action:       realtime.Action(c.ActionType),
			RecordID:     c.RecordID,
			RestaurantID: c.RestaurantID,
			OldStatus:    c.OldStatus,
			NewStatus:    c.NewStatus,
			ChangedAt:    c.ChangedAt,
		})
		utils.InfoLogger.Debugf("change %s %s #%d delivered to %d subscribers", c.Source, c.ActionType, c.RecordID, delivered)
	}
	return len(changes), nil
}

// Prune deletes processed rows older than the retention window.
func (cm *ChangeMonitor) Prune(ctx context.Context, now time.Time) (int64, error) {
	if cm.Retention <= 0 {
		return 0, nil
	}
	res := cm.DB.WithContext(ctx).
		Where("processed = ? AND changed_at < ?", true, now.Add(-cm.Retention)).
		Delete(&models.DBChange{})
	return res.RowsAffected, res.Error
}

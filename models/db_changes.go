package models

import (
	"time"
)

// DBChange is one captured write on a tracked table, drained by the change monitor.
type DBChange struct {
	ID           uint      `gorm:"primaryKey"`
	Source       string    `gorm:"column:table_name;type:varchar(50);not null;index:idx_table_action"`
	RecordID     uint      `gorm:"not null"`
	RestaurantID uint      `gorm:"column:restaurante_id;not null"`
	ActionType   string    `gorm:"type:varchar(10);not null;index:idx_table_action"`
	OldStatus    string    `gorm:"type:varchar(20)"`
	NewStatus    string    `gorm:"type:varchar(20)"`
	ChangedAt    time.Time `gorm:"not null"`
	Processed    bool      `gorm:"not null;index:idx_processed"`
}

func (DBChange) TableName() string { return "db_changes" }

package models

import "time"

// RestaurantConfig holds per-restaurant bookkeeping; exactly one row per restaurant.
type RestaurantConfig struct {
	RestaurantID uint       `gorm:"column:restaurante_id;primaryKey;autoIncrement:false" json:"restaurant_id"`
	LastReset    *time.Time `gorm:"column:ultimo_reset" json:"last_reset,omitempty"`
}

func (RestaurantConfig) TableName() string { return "configuracoes" }

package models

import "time"

// Activity is a single logged workout session (walk, run, cycling...). Kept
// separate from step records: an activity is user-entered, a step record is
// sensor-driven.
type Activity struct {
	ID           uint      `gorm:"primaryKey" bson:"id" json:"id"`
	UserID       uint      `gorm:"index;not null" bson:"user_id" json:"user_id"`
	ActivityType string    `gorm:"size:32;not null" bson:"activity_type" json:"activity_type"`
	StartTime    time.Time `gorm:"index" bson:"start_time" json:"start_time"`
	EndTime      time.Time `bson:"end_time" json:"end_time"`
	DurationSec  int       `gorm:"default:0" bson:"duration_sec" json:"duration_sec"`
	DistanceKm   float64   `gorm:"default:0" bson:"distance_km" json:"distance_km"`
	Calories     float64   `gorm:"default:0" bson:"calories" json:"calories"`
	Steps        int       `gorm:"default:0" bson:"steps" json:"steps"`
	Notes        string    `gorm:"size:512" bson:"notes" json:"notes"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

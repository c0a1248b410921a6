package models

import "time"

// DateLayout is the calendar-date format used across the service. Dates are
// stored as strings so lexicographic comparison matches chronological order.
const DateLayout = "2006-01-02"

// StepRecord is the per-user, per-date aggregate of steps, distance and
// calories. Exactly one record exists per (user, date) pair; it is upserted,
// never duplicated.
type StepRecord struct {
	ID         uint      `gorm:"primaryKey" bson:"id" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_step_user_date;not null" bson:"user_id" json:"user_id"`
	Date       string    `gorm:"size:10;uniqueIndex:idx_step_user_date;not null" bson:"date" json:"date"`
	Steps      int       `gorm:"default:0" bson:"steps" json:"steps"`
	DistanceKm float64   `gorm:"default:0" bson:"distance_km" json:"distance_km"`
	Calories   float64   `gorm:"default:0" bson:"calories" json:"calories"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

// StepTotals aggregates step records over a date window.
type StepTotals struct {
	Steps      int     `bson:"steps" json:"steps"`
	DistanceKm float64 `bson:"distance_km" json:"distance_km"`
	Calories   float64 `bson:"calories" json:"calories"`
}

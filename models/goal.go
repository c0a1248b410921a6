package models

import "time"

// Goal types: the quantity a goal is measured in.
const (
	GoalTypeSteps      = "steps"
	GoalTypeDistance   = "distance"
	GoalTypeCalories   = "calories"
	GoalTypeActivities = "activities"
)

// Goal periods: the date window progress is accumulated over.
const (
	GoalPeriodDaily   = "daily"
	GoalPeriodWeekly  = "weekly"
	GoalPeriodMonthly = "monthly"
	GoalPeriodCustom  = "custom"
)

// Goal is a user target over a date window. Completed is a one-way flag: once
// a goal crosses its target it stays completed even if the accumulated value
// later regresses.
type Goal struct {
	ID           uint       `gorm:"primaryKey" bson:"id" json:"id"`
	UserID       uint       `gorm:"index;not null" bson:"user_id" json:"user_id"`
	GoalType     string     `gorm:"size:16;not null" bson:"goal_type" json:"goal_type"`
	Period       string     `gorm:"size:16;not null" bson:"period" json:"period"`
	TargetValue  float64    `gorm:"not null" bson:"target_value" json:"target_value"`
	CurrentValue float64    `gorm:"default:0" bson:"current_value" json:"current_value"`
	StartDate    string     `gorm:"size:10" bson:"start_date" json:"start_date"`
	EndDate      string     `gorm:"size:10" bson:"end_date" json:"end_date"`
	Completed    bool       `gorm:"default:false" bson:"completed" json:"completed"`
	CompletedAt  *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// CoversDate reports whether the goal's date range includes the given date.
// An empty bound is open-ended.
func (g *Goal) CoversDate(date string) bool {
	if g.StartDate != "" && date < g.StartDate {
		return false
	}
	if g.EndDate != "" && date > g.EndDate {
		return false
	}
	return true
}

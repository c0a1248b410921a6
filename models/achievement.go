package models

import "time"

// Achievement is an unlocked badge. At most one row exists per
// (user, achievement type); the unique index is what makes unlocking
// idempotent under concurrent evaluation.
type Achievement struct {
	ID              uint      `gorm:"primaryKey" bson:"id" json:"id"`
	UserID          uint      `gorm:"uniqueIndex:idx_achievement_user_type;not null" bson:"user_id" json:"user_id"`
	AchievementType string    `gorm:"size:32;uniqueIndex:idx_achievement_user_type;not null" bson:"achievement_type" json:"achievement_type"`
	Title           string    `gorm:"size:64" bson:"title" json:"title"`
	Description     string    `gorm:"size:255" bson:"description" json:"description"`
	IconName        string    `gorm:"size:32;default:'trophy'" bson:"icon_name" json:"icon_name"`
	UnlockedAt      time.Time `bson:"unlocked_at" json:"unlocked_at"`
}

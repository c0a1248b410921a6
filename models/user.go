package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in the step tracking service. Passwords are
// stored as bcrypt hashes only. Body metrics feed the derived-metric
// calculator; DailyStepGoal is the target used by reminders and default goals.
type User struct {
	ID            uint           `gorm:"primaryKey" bson:"id" json:"id"`
	Username      string         `gorm:"size:64;uniqueIndex;not null" bson:"username" json:"username"`
	Email         string         `gorm:"size:255" bson:"email" json:"email"`
	PasswordHash  string         `gorm:"size:255" bson:"password_hash" json:"-"`
	Age           int            `gorm:"default:0" bson:"age" json:"age"`
	WeightKg      float64        `gorm:"default:0" bson:"weight_kg" json:"weight_kg"`
	HeightCm      float64        `gorm:"default:0" bson:"height_cm" json:"height_cm"`
	FitnessGoal   string         `gorm:"size:64" bson:"fitness_goal" json:"fitness_goal"`
	DailyStepGoal int            `gorm:"default:10000" bson:"daily_step_goal" json:"daily_step_goal"`
	FriendCode    string         `gorm:"size:36;uniqueIndex" bson:"friend_code" json:"friend_code"`
	CreatedAt     time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" bson:"-" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

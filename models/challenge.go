package models

import "time"

// Challenge is a shared step-count competition users can join.
type Challenge struct {
	ID            uint      `gorm:"primaryKey" bson:"id" json:"id"`
	Title         string    `gorm:"size:128;not null" bson:"title" json:"title"`
	Description   string    `gorm:"size:512" bson:"description" json:"description"`
	ChallengeType string    `gorm:"size:16;default:'steps'" bson:"challenge_type" json:"challenge_type"`
	TargetValue   int       `gorm:"not null" bson:"target_value" json:"target_value"`
	StartDate     string    `gorm:"size:10" bson:"start_date" json:"start_date"`
	EndDate       string    `gorm:"size:10" bson:"end_date" json:"end_date"`
	CreatorID     uint      `gorm:"index;not null" bson:"creator_id" json:"creator_id"`
	Active        bool      `gorm:"default:true" bson:"active" json:"active"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// ChallengeParticipation tracks one user's progress within a joined challenge.
// Steps accumulates deltas contributed since joining, never absolute daily
// totals, so joining mid-challenge does not grant prior steps.
type ChallengeParticipation struct {
	ID          uint      `gorm:"primaryKey" bson:"id" json:"id"`
	ChallengeID uint      `gorm:"uniqueIndex:idx_participation;not null" bson:"challenge_id" json:"challenge_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_participation;not null" bson:"user_id" json:"user_id"`
	Steps       int       `gorm:"default:0" bson:"steps" json:"steps"`
	Completed   bool      `gorm:"default:false" bson:"completed" json:"completed"`
	JoinedAt    time.Time `bson:"joined_at" json:"joined_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// LeaderboardEntry is a ranked row for a challenge leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Steps    int    `json:"steps"`
}

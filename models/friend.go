package models

import "time"

// Friend edge statuses.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
)

// Friend is a directed friendship edge from UserID to FriendUserID. Accepting
// a pending request flips it to accepted and creates the reciprocal accepted
// edge, so an established friendship is always visible from both sides.
type Friend struct {
	ID           uint      `gorm:"primaryKey" bson:"id" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_friend_edge;not null" bson:"user_id" json:"user_id"`
	FriendUserID uint      `gorm:"uniqueIndex:idx_friend_edge;not null" bson:"friend_user_id" json:"friend_user_id"`
	Status       string    `gorm:"size:16;not null" bson:"status" json:"status"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

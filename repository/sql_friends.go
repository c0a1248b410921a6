package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlFriendRepo struct {
	db *gorm.DB
}

func (r *sqlFriendRepo) Request(ctx context.Context, ownerID, friendID uint) error {
	if ownerID == friendID {
		return ErrDuplicate
	}
	edge := models.Friend{
		UserID:       ownerID,
		FriendUserID: friendID,
		Status:       models.FriendStatusPending,
		CreatedAt:    time.Now(),
	}
	return translateSQLError(r.db.WithContext(ctx).Create(&edge).Error)
}

// Accept updates the pending requester -> owner edge and creates the
// reciprocal accepted edge in one transaction, so an established friendship
// is never half-visible.
func (r *sqlFriendRepo) Accept(ctx context.Context, ownerID, requesterID uint) error {
	return translateSQLError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var edge models.Friend
		err := tx.Where("user_id = ? AND friend_user_id = ? AND status = ?",
			requesterID, ownerID, models.FriendStatusPending).First(&edge).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		edge.Status = models.FriendStatusAccepted
		if err := tx.Save(&edge).Error; err != nil {
			return err
		}

		reciprocal := models.Friend{
			UserID:       ownerID,
			FriendUserID: requesterID,
			Status:       models.FriendStatusAccepted,
			CreatedAt:    time.Now(),
		}
		return tx.Create(&reciprocal).Error
	}))
}

func (r *sqlFriendRepo) Remove(ctx context.Context, ownerID, friendID uint) error {
	return translateSQLError(r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_user_id = ?) OR (user_id = ? AND friend_user_id = ?)",
			ownerID, friendID, friendID, ownerID).
		Delete(&models.Friend{}).Error)
}

func (r *sqlFriendRepo) ListAccepted(ctx context.Context, userID uint) ([]models.Friend, error) {
	var edges []models.Friend
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.FriendStatusAccepted).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, translateSQLError(err)
}

func (r *sqlFriendRepo) ListPending(ctx context.Context, userID uint) ([]models.Friend, error) {
	var edges []models.Friend
	err := r.db.WithContext(ctx).
		Where("friend_user_id = ? AND status = ?", userID, models.FriendStatusPending).
		Order("created_at DESC").
		Find(&edges).Error
	return edges, translateSQLError(err)
}

func (r *sqlFriendRepo) CountAccepted(ctx context.Context, userID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Friend{}).
		Where("user_id = ? AND status = ?", userID, models.FriendStatusAccepted).
		Count(&count).Error
	return int(count), translateSQLError(err)
}

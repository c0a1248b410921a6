package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stepsync/server/models"
)

type sqlAchievementRepo struct {
	db *gorm.DB
}

// UnlockIfAbsent is a single INSERT ... ON CONFLICT DO NOTHING against the
// unique (user_id, achievement_type) index. No read precedes the write, so
// concurrent evaluations cannot double-unlock.
func (r *sqlAchievementRepo) UnlockIfAbsent(ctx context.Context, a *models.Achievement) (bool, error) {
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now()
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_type"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return false, translateSQLError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sqlAchievementRepo) List(ctx context.Context, userID uint) ([]models.Achievement, error) {
	var out []models.Achievement
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&out).Error
	return out, translateSQLError(err)
}

func (r *sqlAchievementRepo) Count(ctx context.Context, userID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Achievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return int(count), translateSQLError(err)
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlActivityRepo struct {
	db *gorm.DB
}

func (r *sqlActivityRepo) Create(ctx context.Context, a *models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return translateSQLError(r.db.WithContext(ctx).Create(a).Error)
}

func (r *sqlActivityRepo) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var a models.Activity
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &a, nil
}

func (r *sqlActivityRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Activity, error) {
	var acts []models.Activity
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return acts, translateSQLError(q.Find(&acts).Error)
}

func (r *sqlActivityRepo) ListBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.Activity, error) {
	var acts []models.Activity
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, start, end).
		Order("start_time ASC").
		Find(&acts).Error
	return acts, translateSQLError(err)
}

func (r *sqlActivityRepo) CountBetween(ctx context.Context, userID uint, start, end time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Activity{}).
		Where("user_id = ? AND start_time >= ? AND start_time < ?", userID, start, end).
		Count(&count).Error
	return int(count), translateSQLError(err)
}

func (r *sqlActivityRepo) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Activity{}, id)
	if res.Error != nil {
		return translateSQLError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlGoalRepo struct {
	db *gorm.DB
}

func (r *sqlGoalRepo) Create(ctx context.Context, g *models.Goal) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	return translateSQLError(r.db.WithContext(ctx).Create(g).Error)
}

func (r *sqlGoalRepo) GetByID(ctx context.Context, id uint) (*models.Goal, error) {
	var g models.Goal
	if err := r.db.WithContext(ctx).First(&g, id).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &g, nil
}

func (r *sqlGoalRepo) ListActive(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, false).
		Order("created_at DESC").
		Find(&goals).Error
	return goals, translateSQLError(err)
}

func (r *sqlGoalRepo) ListCompleted(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed = ?", userID, true).
		Order("created_at DESC").
		Find(&goals).Error
	return goals, translateSQLError(err)
}

func (r *sqlGoalRepo) ListAll(ctx context.Context, userID uint) ([]models.Goal, error) {
	var goals []models.Goal
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&goals).Error
	return goals, translateSQLError(err)
}

func (r *sqlGoalRepo) UpdateProgress(ctx context.Context, goalID uint, value float64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("id = ?", goalID).
		Updates(map[string]interface{}{"current_value": value, "updated_at": time.Now()})
	if res.Error != nil {
		return translateSQLError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIfActive relies on the conditional UPDATE's affected-row count for
// the compare-and-swap: only one caller ever observes the flip.
func (r *sqlGoalRepo) CompleteIfActive(ctx context.Context, goalID uint) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("id = ? AND completed = ?", goalID, false).
		Updates(map[string]interface{}{"completed": true, "completed_at": now, "updated_at": now})
	if res.Error != nil {
		return false, translateSQLError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *sqlGoalRepo) Update(ctx context.Context, g *models.Goal) error {
	g.UpdatedAt = time.Now()
	return translateSQLError(r.db.WithContext(ctx).Save(g).Error)
}

func (r *sqlGoalRepo) Delete(ctx context.Context, userID, goalID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Goal{}, goalID)
	if res.Error != nil {
		return translateSQLError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlStepRepo struct {
	db  *gorm.DB
	hub *watchHub
}

func (r *sqlStepRepo) GetByDate(ctx context.Context, userID uint, date string) (*models.StepRecord, error) {
	var rec models.StepRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&rec).Error
	if err != nil {
		return nil, translateSQLError(err)
	}
	return &rec, nil
}

func (r *sqlStepRepo) ListBetween(ctx context.Context, userID uint, startDate, endDate string) ([]models.StepRecord, error) {
	var recs []models.StepRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date ASC").
		Find(&recs).Error
	return recs, translateSQLError(err)
}

func (r *sqlStepRepo) ListRecent(ctx context.Context, userID uint, limit int) ([]models.StepRecord, error) {
	var recs []models.StepRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, translateSQLError(err)
}

func (r *sqlStepRepo) TotalsBetween(ctx context.Context, userID uint, startDate, endDate string) (models.StepTotals, error) {
	var totals models.StepTotals
	err := r.db.WithContext(ctx).
		Model(&models.StepRecord{}).
		Select("COALESCE(SUM(steps),0) AS steps, COALESCE(SUM(distance_km),0) AS distance_km, COALESCE(SUM(calories),0) AS calories").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Scan(&totals).Error
	return totals, translateSQLError(err)
}

func (r *sqlStepRepo) TotalSteps(ctx context.Context, userID uint) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&models.StepRecord{}).
		Select("COALESCE(SUM(steps),0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, translateSQLError(err)
}

// Upsert runs the read-modify-write inside a transaction; the unique index on
// (user_id, date) guarantees at most one row per pair even if two writers
// race past the read.
func (r *sqlStepRepo) Upsert(ctx context.Context, rec *models.StepRecord) (int, error) {
	var delta int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StepRecord
		err := tx.Where("user_id = ? AND date = ?", rec.UserID, rec.Date).First(&existing).Error
		switch {
		case err == nil:
			delta = rec.Steps - existing.Steps
			existing.Steps = rec.Steps
			existing.DistanceKm = rec.DistanceKm
			existing.Calories = rec.Calories
			existing.UpdatedAt = time.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*rec = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			delta = rec.Steps
			rec.UpdatedAt = time.Now()
			return tx.Create(rec).Error
		default:
			return err
		}
	})
	if err != nil {
		return 0, translateSQLError(err)
	}
	r.hub.publish(*rec)
	return delta, nil
}

func (r *sqlStepRepo) WatchByDate(ctx context.Context, userID uint, date string) (<-chan models.StepRecord, error) {
	return r.hub.subscribe(ctx, userID, date), nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlChallengeRepo struct {
	db *gorm.DB
}

func (r *sqlChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return translateSQLError(r.db.WithContext(ctx).Create(c).Error)
}

func (r *sqlChallengeRepo) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &c, nil
}

func (r *sqlChallengeRepo) ListActive(ctx context.Context) ([]models.Challenge, error) {
	var out []models.Challenge
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("created_at DESC").
		Find(&out).Error
	return out, translateSQLError(err)
}

func (r *sqlChallengeRepo) Join(ctx context.Context, challengeID, userID uint) (*models.ChallengeParticipation, error) {
	now := time.Now()
	p := models.ChallengeParticipation{
		ChallengeID: challengeID,
		UserID:      userID,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	err := translateSQLError(r.db.WithContext(ctx).Create(&p).Error)
	if errors.Is(err, ErrDuplicate) {
		// Already joined: hand back the existing participation.
		var existing models.ChallengeParticipation
		if err := r.db.WithContext(ctx).
			Where("challenge_id = ? AND user_id = ?", challengeID, userID).
			First(&existing).Error; err != nil {
			return nil, translateSQLError(err)
		}
		return &existing, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *sqlChallengeRepo) Participations(ctx context.Context, userID uint) ([]models.ChallengeParticipation, error) {
	var out []models.ChallengeParticipation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&out).Error
	return out, translateSQLError(err)
}

func (r *sqlChallengeRepo) ParticipantsOf(ctx context.Context, challengeID uint) ([]models.ChallengeParticipation, error) {
	var out []models.ChallengeParticipation
	err := r.db.WithContext(ctx).
		Where("challenge_id = ?", challengeID).
		Order("steps DESC").
		Find(&out).Error
	return out, translateSQLError(err)
}

// AddParticipationSteps increments in place with a SQL expression; no
// read-modify-write, so concurrent deltas cannot lose each other.
func (r *sqlChallengeRepo) AddParticipationSteps(ctx context.Context, challengeID, userID uint, delta int) error {
	if delta < 0 {
		return errors.New("repository: negative step delta")
	}
	if delta == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Updates(map[string]interface{}{
			"steps":      gorm.Expr("steps + ?", delta),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateSQLError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqlChallengeRepo) CompleteParticipationIfReached(ctx context.Context, challengeID, userID uint, target int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ? AND user_id = ? AND completed = ? AND steps >= ?",
			challengeID, userID, false, target).
		Updates(map[string]interface{}{"completed": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, translateSQLError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

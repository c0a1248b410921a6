package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/stepsync/server/models"
)

type sqlUserRepo struct {
	db *gorm.DB
}

func (r *sqlUserRepo) Create(ctx context.Context, u *models.User) error {
	return translateSQLError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &u, nil
}

func (r *sqlUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &u, nil
}

func (r *sqlUserRepo) GetByFriendCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("friend_code = ?", code).First(&u).Error; err != nil {
		return nil, translateSQLError(err)
	}
	return &u, nil
}

func (r *sqlUserRepo) Update(ctx context.Context, u *models.User) error {
	return translateSQLError(r.db.WithContext(ctx).Save(u).Error)
}

func (r *sqlUserRepo) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var users []models.User
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translateSQLError(err)
	}
	if err := r.db.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, translateSQLError(err)
	}
	return users, total, nil
}

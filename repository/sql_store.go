package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// NewSQLStore builds the gorm-backed store. The same implementation serves
// the embedded SQLite deployment and MySQL; only the dialector differs.
func NewSQLStore(db *gorm.DB) *Store {
	hub := newWatchHub()
	return &Store{
		Users:        &sqlUserRepo{db: db},
		StepRecords:  &sqlStepRepo{db: db, hub: hub},
		Activities:   &sqlActivityRepo{db: db},
		Goals:        &sqlGoalRepo{db: db},
		Friends:      &sqlFriendRepo{db: db},
		Achievements: &sqlAchievementRepo{db: db},
		Challenges:   &sqlChallengeRepo{db: db},
	}
}

// translateSQLError maps gorm/driver errors onto the repository sentinels.
func translateSQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry") {
		return ErrDuplicate
	}
	return err
}

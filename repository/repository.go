// Package repository defines the persistence contracts for the step tracking
// domain. There are exactly two conforming implementations per interface: a
// SQL backend (gorm over SQLite or MySQL) and a document backend (MongoDB).
// Both are validated by the same contract test suite so they cannot drift
// apart.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stepsync/server/models"
)

var (
	// ErrNotFound indicates no record matched the query.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicate indicates a uniqueness constraint rejected a write.
	ErrDuplicate = errors.New("repository: duplicate record")
)

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByFriendCode(ctx context.Context, code string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
}

// StepRecordRepository persists per-user per-date step aggregates.
type StepRecordRepository interface {
	GetByDate(ctx context.Context, userID uint, date string) (*models.StepRecord, error)
	ListBetween(ctx context.Context, userID uint, startDate, endDate string) ([]models.StepRecord, error)
	// ListRecent returns up to limit records ordered by date descending.
	ListRecent(ctx context.Context, userID uint, limit int) ([]models.StepRecord, error)
	TotalsBetween(ctx context.Context, userID uint, startDate, endDate string) (models.StepTotals, error)
	TotalSteps(ctx context.Context, userID uint) (int, error)
	// Upsert writes the record for (user, date), overwriting an existing one,
	// and returns the step delta relative to the previous stored total. A
	// brand-new record contributes its full step count as the delta.
	Upsert(ctx context.Context, rec *models.StepRecord) (delta int, err error)
	// WatchByDate emits the record for (user, date) after each write until ctx
	// is cancelled. The returned channel is closed on cancellation.
	WatchByDate(ctx context.Context, userID uint, date string) (<-chan models.StepRecord, error)
}

// ActivityRepository persists logged workout sessions.
type ActivityRepository interface {
	Create(ctx context.Context, a *models.Activity) error
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Activity, error)
	ListBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.Activity, error)
	CountBetween(ctx context.Context, userID uint, start, end time.Time) (int, error)
	Delete(ctx context.Context, userID, id uint) error
}

// GoalRepository persists user goals. Completion is a one-way transition
// enforced by CompleteIfActive.
type GoalRepository interface {
	Create(ctx context.Context, g *models.Goal) error
	GetByID(ctx context.Context, id uint) (*models.Goal, error)
	ListActive(ctx context.Context, userID uint) ([]models.Goal, error)
	ListCompleted(ctx context.Context, userID uint) ([]models.Goal, error)
	ListAll(ctx context.Context, userID uint) ([]models.Goal, error)
	UpdateProgress(ctx context.Context, goalID uint, value float64) error
	// CompleteIfActive atomically flips the completion flag and reports
	// whether this call performed the transition. A completed goal is never
	// reverted; repeated calls return false.
	CompleteIfActive(ctx context.Context, goalID uint) (bool, error)
	Update(ctx context.Context, g *models.Goal) error
	Delete(ctx context.Context, userID, goalID uint) error
}

// FriendRepository persists directed friendship edges.
type FriendRepository interface {
	// Request creates a pending edge owner -> friend. ErrDuplicate when any
	// edge between the pair already exists in that direction.
	Request(ctx context.Context, ownerID, friendID uint) error
	// Accept flips the pending requester -> owner edge to accepted and
	// creates the reciprocal accepted edge in one transaction.
	Accept(ctx context.Context, ownerID, requesterID uint) error
	// Remove deletes both directions of the relationship.
	Remove(ctx context.Context, ownerID, friendID uint) error
	ListAccepted(ctx context.Context, userID uint) ([]models.Friend, error)
	// ListPending returns requests addressed to userID awaiting acceptance.
	ListPending(ctx context.Context, userID uint) ([]models.Friend, error)
	CountAccepted(ctx context.Context, userID uint) (int, error)
}

// AchievementRepository persists unlocked badges.
type AchievementRepository interface {
	// UnlockIfAbsent inserts the achievement unless one with the same
	// (user, type) already exists, and reports whether the insert happened.
	// Safe under concurrent evaluation: the uniqueness constraint, not a
	// read-before-write, is what prevents duplicates.
	UnlockIfAbsent(ctx context.Context, a *models.Achievement) (bool, error)
	List(ctx context.Context, userID uint) ([]models.Achievement, error)
	Count(ctx context.Context, userID uint) (int, error)
}

// ChallengeRepository persists challenges and per-user participations.
type ChallengeRepository interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id uint) (*models.Challenge, error)
	ListActive(ctx context.Context) ([]models.Challenge, error)
	// Join creates a participation with zero accumulated steps. Joining a
	// challenge twice returns the existing participation.
	Join(ctx context.Context, challengeID, userID uint) (*models.ChallengeParticipation, error)
	Participations(ctx context.Context, userID uint) ([]models.ChallengeParticipation, error)
	ParticipantsOf(ctx context.Context, challengeID uint) ([]models.ChallengeParticipation, error)
	// AddParticipationSteps atomically increments accumulated steps by delta.
	// Negative deltas are rejected.
	AddParticipationSteps(ctx context.Context, challengeID, userID uint, delta int) error
	// CompleteParticipationIfReached flips the participation to completed when
	// accumulated steps have reached target, reporting whether this call
	// performed the transition.
	CompleteParticipationIfReached(ctx context.Context, challengeID, userID uint, target int) (bool, error)
}

// Store bundles the repositories of one backend.
type Store struct {
	Users        UserRepository
	StepRecords  StepRecordRepository
	Activities   ActivityRepository
	Goals        GoalRepository
	Friends      FriendRepository
	Achievements AchievementRepository
	Challenges   ChallengeRepository
}

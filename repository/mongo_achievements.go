package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
)

type mongoAchievementRepo struct {
	coll *mongo.Collection
	ids  *mongoIDAllocator
}

// UnlockIfAbsent inserts and lets the unique (user_id, achievement_type)
// index reject duplicates, which is the atomic insert-if-absent the unlock
// path needs under concurrent evaluation.
func (r *mongoAchievementRepo) UnlockIfAbsent(ctx context.Context, a *models.Achievement) (bool, error) {
	id, err := r.ids.next(ctx, collAchievements)
	if err != nil {
		return false, err
	}
	a.ID = id
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, translateMongoError(err)
	}
	return true, nil
}

func (r *mongoAchievementRepo) List(ctx context.Context, userID uint) ([]models.Achievement, error) {
	cur, err := r.coll.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "unlocked_at", Value: -1}}))
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var out []models.Achievement
	if err := cur.All(ctx, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return out, nil
}

func (r *mongoAchievementRepo) Count(ctx context.Context, userID uint) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"user_id": userID})
	return int(n), translateMongoError(err)
}

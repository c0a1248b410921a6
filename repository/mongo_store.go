package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection names.
const (
	collUsers          = "users"
	collStepRecords    = "stepRecords"
	collActivities     = "activities"
	collGoals          = "goals"
	collFriends        = "friends"
	collAchievements   = "achievements"
	collChallenges     = "challenges"
	collParticipations = "challengeParticipations"
	collCounters       = "counters"
)

// NewMongoStore builds the document-store backend. Identifiers are numeric,
// allocated from a counters collection, so records keep the same shape as the
// SQL backend. Uniqueness constraints are real unique indexes, created here,
// not existence checks.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	if err := ensureMongoIndexes(ctx, db); err != nil {
		return nil, err
	}
	ids := &mongoIDAllocator{counters: db.Collection(collCounters)}
	hub := newWatchHub()
	return &Store{
		Users:        &mongoUserRepo{coll: db.Collection(collUsers), ids: ids},
		StepRecords:  &mongoStepRepo{coll: db.Collection(collStepRecords), ids: ids, hub: hub},
		Activities:   &mongoActivityRepo{coll: db.Collection(collActivities), ids: ids},
		Goals:        &mongoGoalRepo{coll: db.Collection(collGoals), ids: ids},
		Friends:      &mongoFriendRepo{coll: db.Collection(collFriends), ids: ids},
		Achievements: &mongoAchievementRepo{coll: db.Collection(collAchievements), ids: ids},
		Challenges: &mongoChallengeRepo{
			challenges:     db.Collection(collChallenges),
			participations: db.Collection(collParticipations),
			ids:            ids,
		},
	}, nil
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	specs := map[string][]mongo.IndexModel{
		collUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "friend_code", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
		},
		collStepRecords: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}, Options: unique},
		},
		collAchievements: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "achievement_type", Value: 1}}, Options: unique},
		},
		collFriends: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "friend_user_id", Value: 1}}, Options: unique},
		},
		collParticipations: {
			{Keys: bson.D{{Key: "challenge_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: unique},
		},
		collActivities: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: 1}}},
		},
		collGoals: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "completed", Value: 1}}},
		},
	}
	for coll, models := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", coll, err)
		}
	}
	return nil
}

// mongoIDAllocator hands out auto-increment style numeric IDs from a counters
// collection, one counter document per entity name.
type mongoIDAllocator struct {
	counters *mongo.Collection
}

func (a *mongoIDAllocator) next(ctx context.Context, name string) (uint, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := a.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("allocate id for %s: %w", name, err)
	}
	return uint(doc.Seq), nil
}

// translateMongoError maps driver errors onto the repository sentinels.
func translateMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

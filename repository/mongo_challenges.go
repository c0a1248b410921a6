package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
)

type mongoChallengeRepo struct {
	challenges     *mongo.Collection
	participations *mongo.Collection
	ids            *mongoIDAllocator
}

func (r *mongoChallengeRepo) Create(ctx context.Context, c *models.Challenge) error {
	id, err := r.ids.next(ctx, collChallenges)
	if err != nil {
		return err
	}
	c.ID = id
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err = r.challenges.InsertOne(ctx, c)
	return translateMongoError(err)
}

func (r *mongoChallengeRepo) GetByID(ctx context.Context, id uint) (*models.Challenge, error) {
	var c models.Challenge
	if err := r.challenges.FindOne(ctx, bson.M{"id": id}).Decode(&c); err != nil {
		return nil, translateMongoError(err)
	}
	return &c, nil
}

func (r *mongoChallengeRepo) ListActive(ctx context.Context) ([]models.Challenge, error) {
	cur, err := r.challenges.Find(ctx, bson.M{"active": true},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var out []models.Challenge
	if err := cur.All(ctx, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return out, nil
}

func (r *mongoChallengeRepo) Join(ctx context.Context, challengeID, userID uint) (*models.ChallengeParticipation, error) {
	id, err := r.ids.next(ctx, collParticipations)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	p := models.ChallengeParticipation{
		ID:          id,
		ChallengeID: challengeID,
		UserID:      userID,
		JoinedAt:    now,
		UpdatedAt:   now,
	}
	if _, err := r.participations.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.ChallengeParticipation
			ferr := r.participations.FindOne(ctx,
				bson.M{"challenge_id": challengeID, "user_id": userID}).Decode(&existing)
			if ferr != nil {
				return nil, translateMongoError(ferr)
			}
			return &existing, nil
		}
		return nil, translateMongoError(err)
	}
	return &p, nil
}

func (r *mongoChallengeRepo) Participations(ctx context.Context, userID uint) ([]models.ChallengeParticipation, error) {
	return r.listParticipations(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "joined_at", Value: -1}}))
}

func (r *mongoChallengeRepo) ParticipantsOf(ctx context.Context, challengeID uint) ([]models.ChallengeParticipation, error) {
	return r.listParticipations(ctx, bson.M{"challenge_id": challengeID},
		options.Find().SetSort(bson.D{{Key: "steps", Value: -1}}))
}

func (r *mongoChallengeRepo) listParticipations(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.ChallengeParticipation, error) {
	cur, err := r.participations.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var out []models.ChallengeParticipation
	if err := cur.All(ctx, &out); err != nil {
		return nil, translateMongoError(err)
	}
	return out, nil
}

func (r *mongoChallengeRepo) AddParticipationSteps(ctx context.Context, challengeID, userID uint, delta int) error {
	if delta < 0 {
		return errors.New("repository: negative step delta")
	}
	if delta == 0 {
		return nil
	}
	res, err := r.participations.UpdateOne(ctx,
		bson.M{"challenge_id": challengeID, "user_id": userID},
		bson.M{
			"$inc": bson.M{"steps": delta},
			"$set": bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoChallengeRepo) CompleteParticipationIfReached(ctx context.Context, challengeID, userID uint, target int) (bool, error) {
	res, err := r.participations.UpdateOne(ctx,
		bson.M{
			"challenge_id": challengeID,
			"user_id":      userID,
			"completed":    false,
			"steps":        bson.M{"$gte": target},
		},
		bson.M{"$set": bson.M{"completed": true, "updated_at": time.Now()}})
	if err != nil {
		return false, translateMongoError(err)
	}
	return res.ModifiedCount > 0, nil
}

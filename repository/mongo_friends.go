package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
)

type mongoFriendRepo struct {
	coll *mongo.Collection
	ids  *mongoIDAllocator
}

func (r *mongoFriendRepo) Request(ctx context.Context, ownerID, friendID uint) error {
	if ownerID == friendID {
		return ErrDuplicate
	}
	id, err := r.ids.next(ctx, collFriends)
	if err != nil {
		return err
	}
	edge := models.Friend{
		ID:           id,
		UserID:       ownerID,
		FriendUserID: friendID,
		Status:       models.FriendStatusPending,
		CreatedAt:    time.Now(),
	}
	_, err = r.coll.InsertOne(ctx, edge)
	return translateMongoError(err)
}

// Accept flips the pending edge with a conditional update, then inserts the
// reciprocal accepted edge. The unique edge index makes a replayed accept
// fail on the duplicate insert rather than create a second edge.
func (r *mongoFriendRepo) Accept(ctx context.Context, ownerID, requesterID uint) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"user_id":        requesterID,
			"friend_user_id": ownerID,
			"status":         models.FriendStatusPending,
		},
		bson.M{"$set": bson.M{"status": models.FriendStatusAccepted}})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	id, err := r.ids.next(ctx, collFriends)
	if err != nil {
		return err
	}
	reciprocal := models.Friend{
		ID:           id,
		UserID:       ownerID,
		FriendUserID: requesterID,
		Status:       models.FriendStatusAccepted,
		CreatedAt:    time.Now(),
	}
	if _, err := r.coll.InsertOne(ctx, reciprocal); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil // reciprocal edge already present
		}
		return translateMongoError(err)
	}
	return nil
}

func (r *mongoFriendRepo) Remove(ctx context.Context, ownerID, friendID uint) error {
	_, err := r.coll.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"user_id": ownerID, "friend_user_id": friendID},
		bson.M{"user_id": friendID, "friend_user_id": ownerID},
	}})
	return translateMongoError(err)
}

func (r *mongoFriendRepo) ListAccepted(ctx context.Context, userID uint) ([]models.Friend, error) {
	return r.list(ctx, bson.M{"user_id": userID, "status": models.FriendStatusAccepted})
}

func (r *mongoFriendRepo) ListPending(ctx context.Context, userID uint) ([]models.Friend, error) {
	return r.list(ctx, bson.M{"friend_user_id": userID, "status": models.FriendStatusPending})
}

func (r *mongoFriendRepo) list(ctx context.Context, filter bson.M) ([]models.Friend, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var edges []models.Friend
	if err := cur.All(ctx, &edges); err != nil {
		return nil, translateMongoError(err)
	}
	return edges, nil
}

func (r *mongoFriendRepo) CountAccepted(ctx context.Context, userID uint) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  models.FriendStatusAccepted,
	})
	return int(n), translateMongoError(err)
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
)

type mongoActivityRepo struct {
	coll *mongo.Collection
	ids  *mongoIDAllocator
}

func (r *mongoActivityRepo) Create(ctx context.Context, a *models.Activity) error {
	id, err := r.ids.next(ctx, collActivities)
	if err != nil {
		return err
	}
	a.ID = id
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err = r.coll.InsertOne(ctx, a)
	return translateMongoError(err)
}

func (r *mongoActivityRepo) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var a models.Activity
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&a); err != nil {
		return nil, translateMongoError(err)
	}
	return &a, nil
}

func (r *mongoActivityRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return r.list(ctx, bson.M{"user_id": userID}, opts)
}

func (r *mongoActivityRepo) ListBetween(ctx context.Context, userID uint, start, end time.Time) ([]models.Activity, error) {
	filter := bson.M{
		"user_id":    userID,
		"start_time": bson.M{"$gte": start, "$lt": end},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
}

func (r *mongoActivityRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var acts []models.Activity
	if err := cur.All(ctx, &acts); err != nil {
		return nil, translateMongoError(err)
	}
	return acts, nil
}

func (r *mongoActivityRepo) CountBetween(ctx context.Context, userID uint, start, end time.Time) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"start_time": bson.M{"$gte": start, "$lt": end},
	})
	return int(n), translateMongoError(err)
}

func (r *mongoActivityRepo) Delete(ctx context.Context, userID, id uint) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "user_id": userID})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

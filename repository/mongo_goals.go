package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
)

type mongoGoalRepo struct {
	coll *mongo.Collection
	ids  *mongoIDAllocator
}

func (r *mongoGoalRepo) Create(ctx context.Context, g *models.Goal) error {
	id, err := r.ids.next(ctx, collGoals)
	if err != nil {
		return err
	}
	g.ID = id
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	_, err = r.coll.InsertOne(ctx, g)
	return translateMongoError(err)
}

func (r *mongoGoalRepo) GetByID(ctx context.Context, id uint) (*models.Goal, error) {
	var g models.Goal
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&g); err != nil {
		return nil, translateMongoError(err)
	}
	return &g, nil
}

func (r *mongoGoalRepo) ListActive(ctx context.Context, userID uint) ([]models.Goal, error) {
	return r.list(ctx, bson.M{"user_id": userID, "completed": false})
}

func (r *mongoGoalRepo) ListCompleted(ctx context.Context, userID uint) ([]models.Goal, error) {
	return r.list(ctx, bson.M{"user_id": userID, "completed": true})
}

func (r *mongoGoalRepo) ListAll(ctx context.Context, userID uint) ([]models.Goal, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *mongoGoalRepo) list(ctx context.Context, filter bson.M) ([]models.Goal, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var goals []models.Goal
	if err := cur.All(ctx, &goals); err != nil {
		return nil, translateMongoError(err)
	}
	return goals, nil
}

func (r *mongoGoalRepo) UpdateProgress(ctx context.Context, goalID uint, value float64) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": goalID},
		bson.M{"$set": bson.M{"current_value": value, "updated_at": time.Now()}})
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIfActive is a conditional update filtered on completed=false; the
// matched count tells whether this call performed the one-way transition.
func (r *mongoGoalRepo) CompleteIfActive(ctx context.Context, goalID uint) (bool, error) {
	now := time.Now()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": goalID, "completed": false},
		bson.M{"$set": bson.M{"completed": true, "completed_at": now, "updated_at": now}})
	if err != nil {
		return false, translateMongoError(err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoGoalRepo) Update(ctx context.Context, g *models.Goal) error {
	g.UpdatedAt = time.Now()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"id": g.ID}, g)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoGoalRepo) Delete(ctx context.Context, userID, goalID uint) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": goalID, "user_id": userID})
	if err != nil {
		return translateMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stepsync/server/models"
	"github.com/stepsync/server/utils"
)

type mongoStepRepo struct {
	coll *mongo.Collection
	ids  *mongoIDAllocator
	hub  *watchHub
}

func (r *mongoStepRepo) GetByDate(ctx context.Context, userID uint, date string) (*models.StepRecord, error) {
	var rec models.StepRecord
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&rec)
	if err != nil {
		return nil, translateMongoError(err)
	}
	return &rec, nil
}

func (r *mongoStepRepo) ListBetween(ctx context.Context, userID uint, startDate, endDate string) ([]models.StepRecord, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": startDate, "$lte": endDate},
	}
	return r.list(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
}

func (r *mongoStepRepo) ListRecent(ctx context.Context, userID uint, limit int) ([]models.StepRecord, error) {
	return r.list(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}).SetLimit(int64(limit)))
}

func (r *mongoStepRepo) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.StepRecord, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongoError(err)
	}
	defer cur.Close(ctx)

	var recs []models.StepRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, translateMongoError(err)
	}
	return recs, nil
}

func (r *mongoStepRepo) TotalsBetween(ctx context.Context, userID uint, startDate, endDate string) (models.StepTotals, error) {
	return r.aggregateTotals(ctx, bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": startDate, "$lte": endDate},
	})
}

func (r *mongoStepRepo) TotalSteps(ctx context.Context, userID uint) (int, error) {
	totals, err := r.aggregateTotals(ctx, bson.M{"user_id": userID})
	return totals.Steps, err
}

func (r *mongoStepRepo) aggregateTotals(ctx context.Context, match bson.M) (models.StepTotals, error) {
	var totals models.StepTotals
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"steps":       bson.M{"$sum": "$steps"},
			"distance_km": bson.M{"$sum": "$distance_km"},
			"calories":    bson.M{"$sum": "$calories"},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return totals, translateMongoError(err)
	}
	defer cur.Close(ctx)
	if cur.Next(ctx) {
		if err := cur.Decode(&totals); err != nil {
			return totals, err
		}
	}
	return totals, nil
}

// Upsert uses a single FindOneAndUpdate with upsert semantics; the previous
// document gives the step delta, and the unique (user_id, date) index keeps
// the record singular under concurrent writes. A pre-allocated numeric id is
// applied only on insert; a wasted id on the update path is just a sequence
// gap, same as SQL auto-increment.
func (r *mongoStepRepo) Upsert(ctx context.Context, rec *models.StepRecord) (int, error) {
	newID, err := r.ids.next(ctx, collStepRecords)
	if err != nil {
		return 0, err
	}
	rec.UpdatedAt = time.Now()

	filter := bson.M{"user_id": rec.UserID, "date": rec.Date}
	update := bson.M{
		"$set": bson.M{
			"steps":       rec.Steps,
			"distance_km": rec.DistanceKm,
			"calories":    rec.Calories,
			"updated_at":  rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"id":      newID,
			"user_id": rec.UserID,
			"date":    rec.Date,
		},
	}

	var before models.StepRecord
	err = r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&before)

	delta := rec.Steps
	switch {
	case err == nil:
		delta = rec.Steps - before.Steps
		rec.ID = before.ID
	case errors.Is(err, mongo.ErrNoDocuments):
		rec.ID = newID
	default:
		return 0, translateMongoError(err)
	}

	r.hub.publish(*rec)
	return delta, nil
}

// WatchByDate prefers a server-side change stream; deployments without
// replica sets (standalone mongod) fall back to the in-process hub, which
// still observes every write issued through this repository.
func (r *mongoStepRepo) WatchByDate(ctx context.Context, userID uint, date string) (<-chan models.StepRecord, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"fullDocument.user_id": userID,
			"fullDocument.date":    date,
		}}},
	}
	stream, err := r.coll.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("change stream unavailable, using in-process watch: %v", err)
		}
		return r.hub.subscribe(ctx, userID, date), nil
	}

	ch := make(chan models.StepRecord, 8)
	go func() {
		defer close(ch)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var ev struct {
				FullDocument models.StepRecord `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				continue
			}
			select {
			case ch <- ev.FullDocument:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
